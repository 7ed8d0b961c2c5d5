package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/taskdash/internal/models"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    models.Status
		wantErr bool
	}{
		{"pending", models.StatusPending, false},
		{"TODO", models.StatusPending, false},
		{" wip ", models.StatusInProgress, false},
		{"in-progress", models.StatusInProgress, false},
		{"in_progress", models.StatusInProgress, false},
		{"complete", models.StatusDone, false},
		{"done", models.StatusDone, false},
		{"", "", false},
		{"archived", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus("Doing"))
	assert.False(t, IsValidStatus("later"))
	assert.False(t, IsValidStatus(""))
}

func TestStatusCycle(t *testing.T) {
	seq := []string{""}
	cur := ""
	for i := 0; i < 4; i++ {
		cur = NextStatus(cur)
		seq = append(seq, cur)
	}
	assert.Equal(t, []string{"", "pending", "in_progress", "done", ""}, seq)

	assert.Equal(t, "done", PrevStatus(""))
	assert.Equal(t, "", PrevStatus("pending"))
	assert.Equal(t, "pending", PrevStatus("in_progress"))
	assert.Equal(t, "", NextStatus("bogus"))
}

func TestParseTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ParsedTask
	}{
		{
			name:  "plain title",
			input: "Buy milk",
			want:  ParsedTask{Title: "Buy milk", Errors: []string{}},
		},
		{
			name:  "status and description",
			input: "Write report +wip // numbers for Q3",
			want: ParsedTask{
				Title:       "Write report",
				Description: "numbers for Q3",
				Status:      "in_progress",
				Errors:      []string{},
			},
		},
		{
			name:  "status keyword",
			input: "status:done Ship it",
			want:  ParsedTask{Title: "Ship it", Status: "done", Errors: []string{}},
		},
		{
			name:  "plus inside a word is kept",
			input: "C++ refresher",
			want:  ParsedTask{Title: "C++ refresher", Errors: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTitle(tt.input))
		})
	}
}

func TestParseTitle_InvalidStatus(t *testing.T) {
	got := ParseTitle("Clean desk +someday")
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "someday")
	assert.Equal(t, "Clean desk", got.Title)
	assert.Empty(t, got.Status)
}
