package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestIs(t *testing.T) {
	err1 := New("error 1")
	err2 := New("error 2")
	wrapped := Wrap(err1, "wrapped")

	assert.True(t, Is(wrapped, err1))
	assert.False(t, Is(wrapped, err2))
	assert.False(t, Is(nil, err1))
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}

func TestAs(t *testing.T) {
	original := &customError{msg: "custom"}
	wrapped := Wrap(original, "wrapped")

	var target *customError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "custom", target.msg)
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithStack(nil))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.Nil(t, WithDetail(nil, "detail"))
}

func TestPipelineTaxonomy(t *testing.T) {
	t.Run("wrapped source read errors keep their classification", func(t *testing.T) {
		err := WrapSourceRead(New("no such file"), "reading donors.csv")
		assert.True(t, IsSourceReadError(err))
		assert.False(t, IsLoadError(err))
		assert.Contains(t, err.Error(), "donors.csv")
	})

	t.Run("wrapped load errors keep their classification", func(t *testing.T) {
		err := WrapLoad(New("constraint violation"), "loading fact_donation")
		assert.True(t, IsLoadError(err))
		assert.False(t, IsSourceReadError(err))
	})

	t.Run("only config and lock errors are fatal", func(t *testing.T) {
		assert.True(t, IsFatal(NewFatalConfigError("store path %q unwritable", "/nope")))
		assert.True(t, IsFatal(Wrap(ErrRunLocked, "lock held")))
		assert.False(t, IsFatal(ErrSourceRead))
		assert.False(t, IsFatal(ErrConformance))
		assert.False(t, IsFatal(ErrReferentialIntegrity))
		assert.False(t, IsFatal(ErrLoad))
		assert.False(t, IsFatal(nil))
	})

	t.Run("referential integrity errors carry the unresolved key", func(t *testing.T) {
		err := Wrapf(ErrReferentialIntegrity, "donation DN-204 references donor %q", "D9999")
		assert.True(t, Is(err, ErrReferentialIntegrity))
		assert.Contains(t, err.Error(), "D9999")
	})
}

func TestErrorChaining(t *testing.T) {
	base := New("base error")

	err := Wrap(base, "layer 1")
	err = WithHint(err, "helpful hint")
	err = WithDetail(err, "detailed info")
	err = Wrap(err, "layer 2")

	assert.True(t, Is(err, base))
	assert.Contains(t, err.Error(), "layer 2")
	assert.Contains(t, err.Error(), "layer 1")
	assert.Contains(t, err.Error(), "base error")

	hints := GetAllHints(err)
	assert.Contains(t, hints, "helpful hint")

	details := GetAllDetails(err)
	assert.Contains(t, details, "detailed info")
}

func ExampleWrap() {
	baseErr := New("connection failed")
	err := Wrap(baseErr, "failed to connect to database")
	fmt.Println(err)
	// Output: failed to connect to database: connection failed
}
