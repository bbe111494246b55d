package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormDataMerge_IsShallowAndAdditive(t *testing.T) {
	fd := FormData{
		FullName:   StrPtr("Jane"),
		MCQAnswers: map[string]int{"q1": 0, "q2": 1},
	}

	fd.Merge(FormData{CollegeName: StrPtr("MIT")})
	assert.Equal(t, "Jane", Str(fd.FullName))
	assert.Equal(t, "MIT", Str(fd.CollegeName))
	assert.Len(t, fd.MCQAnswers, 2)

	// a present map replaces the stored one wholesale
	fd.Merge(FormData{MCQAnswers: map[string]int{"q3": 2}})
	assert.Equal(t, map[string]int{"q3": 2}, fd.MCQAnswers)

	// an empty map counts as absent
	fd.Merge(FormData{MCQAnswers: map[string]int{}})
	assert.Equal(t, map[string]int{"q3": 2}, fd.MCQAnswers)

	// explicit empty string overwrites
	fd.Merge(FormData{FullName: StrPtr("")})
	require.NotNil(t, fd.FullName)
	assert.Equal(t, "", *fd.FullName)
}

func TestFormDataMerge_DoesNotAlias(t *testing.T) {
	patch := FormData{Role: StrPtr("backend"), MCQAnswers: map[string]int{"q1": 1}}
	var fd FormData
	fd.Merge(patch)

	*patch.Role = "changed"
	patch.MCQAnswers["q1"] = 9

	assert.Equal(t, "backend", Str(fd.Role))
	assert.Equal(t, 1, fd.MCQAnswers["q1"])
}

func TestFormDataJSON_PreservesUnknownKeys(t *testing.T) {
	in := `{"fullName":"Jane","linkedin":"https://linkedin.com/in/jane","skills":["go","sql"],"mcqAnswers":{"q1":2}}`

	var fd FormData
	require.NoError(t, json.Unmarshal([]byte(in), &fd))
	assert.Equal(t, "Jane", Str(fd.FullName))
	assert.Equal(t, 2, fd.MCQAnswers["q1"])
	require.Contains(t, fd.Extra, "linkedin")
	assert.NotContains(t, fd.Extra, "fullName")

	out, err := json.Marshal(fd)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestFormDataJSON_OmitsAbsentFields(t *testing.T) {
	out, err := json.Marshal(FormData{Email: StrPtr("a@b.c")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.c"}`, string(out))
}

