package enhancer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tennisrag/internal/domain"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

const question = "Who won the Buenos Aires game between Thomaz Koch and Fred Stolle?"

func TestEnhance_SplitsReply(t *testing.T) {
	gen := &fakeGenerator{reply: "Buenos Aires Koch vs Stolle winner, Thomaz Koch Fred Stolle Buenos Aires result\n"}
	got := New(gen, nil).Enhance(context.Background(), question)

	assert.Equal(t, []string{"Buenos Aires Koch vs Stolle winner", "Thomaz Koch Fred Stolle Buenos Aires result"}, got)
	assert.Contains(t, gen.prompt, question)
	assert.Contains(t, gen.prompt, "No additional text.")
}

func TestEnhance_FallbackOnGeneratorError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	gen := &fakeGenerator{err: errors.New("deadline exceeded")}

	got := New(gen, logger).Enhance(context.Background(), question)

	assert.Equal(t, []string{question}, got)
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestEnhance_FallbackOnMalformedReply(t *testing.T) {
	for _, reply := range []string{"", "   ", "a,,b", "a, ,b", "a,", "Here are some queries:\na, b"} {
		gen := &fakeGenerator{reply: reply}
		got := New(gen, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Enhance(context.Background(), "q")
		assert.Equal(t, []string{"q"}, got, "reply %q", reply)
	}
}

func TestEnhance_NoGenerator(t *testing.T) {
	got := New(nil, nil).Enhance(context.Background(), question)
	assert.Equal(t, []string{question}, got)
}

func TestParseVariants(t *testing.T) {
	got, err := ParseVariants("single query")
	require.NoError(t, err)
	assert.Equal(t, []string{"single query"}, got)

	got, err = ParseVariants("  a ,b,  c  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	_, err = ParseVariants("a,\tb,")
	require.ErrorIs(t, err, domain.ErrQueryEnhancement)
}
