package csvsource

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

const trainingCSV = `Date,From,To,Subject,Body,Classification,Category
2001-05-14,a@enron.com,b@enron.com,numbers,let's keep this quiet,Non-Compliant,"Secrecy, Bribery"
2001-05-15,c@enron.com,d@enron.com,lunch,see you at noon,Compliant,
2001-05-16,e@enron.com,f@enron.com,empty one,,Compliant,
`

const queryCSV = `Date,From,To,Subject,Body
2001-06-01,a@enron.com,x@other.com,merger,big news coming
`

func TestReadSampleRows(t *testing.T) {
	loader := NewLoader(zap.NewNop())

	rows, err := loader.ReadSampleRows(strings.NewReader(trainingCSV))
	require.NoError(t, err)

	// The empty-body row is skipped
	require.Len(t, rows, 2)
	assert.Equal(t, "a@enron.com", rows[0].From)
	assert.Equal(t, "Non-Compliant", rows[0].Classification)
	assert.Equal(t, "Secrecy, Bribery", rows[0].Category)
	assert.Equal(t, "Compliant", rows[1].Classification)
	assert.Equal(t, "", rows[1].Category)
}

func TestReadSampleRowsWithoutLabelColumns(t *testing.T) {
	loader := NewLoader(zap.NewNop())

	rows, err := loader.ReadSampleRows(strings.NewReader(queryCSV))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Classification)
	assert.Equal(t, "big news coming", rows[0].Body)
}

func TestReadSampleRowsMissingRequiredColumn(t *testing.T) {
	loader := NewLoader(zap.NewNop())

	_, err := loader.ReadSampleRows(strings.NewReader("Date,From,To,Subject\n2001-06-01,a,b,c\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "Body"`)
}

func TestReadSampleRowsReorderedColumns(t *testing.T) {
	loader := NewLoader(zap.NewNop())

	csv := "Body,Subject,To,From,Date\nthe content,subj,b@x.com,a@x.com,2001-01-01\n"
	rows, err := loader.ReadSampleRows(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "the content", rows[0].Body)
	assert.Equal(t, "a@x.com", rows[0].From)
}

func TestReadEmails(t *testing.T) {
	loader := NewLoader(zap.NewNop())

	emails, err := loader.ReadEmails(strings.NewReader(queryCSV))
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, core.Email{
		Date:    "2001-06-01",
		From:    "a@enron.com",
		To:      "x@other.com",
		Subject: "merger",
		Body:    "big news coming",
	}, emails[0])
}

func TestWriteResults(t *testing.T) {
	loader := NewLoader(zap.NewNop())

	var buf bytes.Buffer
	err := loader.WriteResults(&buf, []core.ClassificationResult{
		{
			Email:          core.Email{From: "a@enron.com", To: "x@other.com", Subject: "merger"},
			Classification: core.ClassificationNonCompliant,
			Categories:     core.CategorySet{"Insider Trading"},
			RiskScore:      11,
			Reason:         "tip ahead of announcement",
			Evidence:       "big news coming",
			Confidence:     5,
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Classification,Category,Risk Score,From,To,Subject,Reason,Evidence,Confidence Score", lines[0])
	assert.Contains(t, lines[1], "Non-Compliant,Insider Trading,11.00,a@enron.com")
	assert.Contains(t, lines[1], ",5")
}
