package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ritikayogi/AI-Grader/internal/table"
)

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"extract", "batch", "inspect", "grade", "debug", "ping", "serve"} {
		assert.Contains(t, names, want)
	}
}

func TestViperForCmd_Env(t *testing.T) {
	t.Setenv("GRADER_PROMPT_VARIANT", "strict")
	t.Setenv("GRADER_LLM_MODEL", "llama3.2")
	cmd := gradeCmd()
	v := viperForCmd(cmd)
	assert.Equal(t, "strict", v.GetString("prompt-variant"))
	assert.Equal(t, "llama3.2", v.GetString("llm-model"))
	assert.Equal(t, "graded_results.xlsx", v.GetString("output"))
}

func TestForwardArgs(t *testing.T) {
	cmd := serveCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--provider", "groq", "--rate", "30", "--addr", ":9000"}))
	v := viperForCmd(cmd)

	args := forwardArgs(cmd, v)
	assert.Equal(t, []string{"--provider", "groq", "--rate", "30"}, args)
}

func TestGrade_SchemaErrorBeforeModelCall(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("Question,Answer\nq,a\n"), 0o644))
	output := filepath.Join(dir, "out.csv")

	root := rootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"grade", "--input", input, "--output", output, "--provider", "ollama"})
	err := root.Execute()

	var se *table.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"Ideal_Answer", "Student_Answer"}, se.Missing)
	assert.NoFileExists(t, output)
}

func TestGrade_UnknownOutputFormat(t *testing.T) {
	root := rootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"grade", "--input", "in.csv", "--output", "out.xls", "--provider", "ollama"})
	err := root.Execute()
	assert.ErrorIs(t, err, table.ErrUnsupportedFormat)
}
