package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseTargetRequest_Validate(t *testing.T) {
	require.NoError(t, (&ChooseTargetRequest{TargetKind: "page", Target: "/finance"}).Validate())

	err := (&ChooseTargetRequest{TargetKind: "page", Target: "/finance\r\nBcc: leak@example.net"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target")
}
