package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--num-samples", "5", "--output", "out/raw", "--noise-prob", "0.2", "--seed", "9"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 5, opts.numSamples)
	assert.Equal(t, "out/raw", opts.output)
	assert.Equal(t, 0.2, opts.noiseProb)
	assert.Equal(t, uint64(9), opts.seed)

	opts, err = parseFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 200, opts.numSamples)
	assert.Equal(t, -1.0, opts.noiseProb)

	_, err = parseFlags([]string{"--num-samples", "-1"}, io.Discard)
	assert.Error(t, err)

	_, err = parseFlags([]string{"--bogus"}, io.Discard)
	assert.Error(t, err)

	_, err = parseFlags([]string{"extra"}, io.Discard)
	assert.Error(t, err)
}
