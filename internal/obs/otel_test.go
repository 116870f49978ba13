package obs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "advisoryd", "", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
