package main

import (
	"bytes"
	"os"
	"testing"

	"gopkg.in/yaml.v2"

	"github.com/coinbase/cloudsession/internal/utils/testutil"
)

func TestServicesCmd(t *testing.T) {
	require := testutil.Require(t)

	var buf bytes.Buffer
	output = &buf
	defer func() {
		output = os.Stdout
	}()

	rootCmd.SetArgs([]string{"services", "--local-stack", "--region", "eu-central-1"})
	err := rootCmd.Execute()
	require.NoError(err)

	var out servicesOutput
	err = yaml.Unmarshal(buf.Bytes(), &out)
	require.NoError(err)
	require.Equal("eu-central-1", out.Region)
	require.Contains(out.Clients, "s3")
	require.Contains(out.Clients, "sts")
	require.Equal([]string{"dynamodb", "s3", "sns", "sqs"}, out.Resources)
}

func TestParseAttributes(t *testing.T) {
	require := testutil.Require(t)

	attributes, err := parseAttributes(`{"id": "foo", "count": 2}`)
	require.NoError(err)
	require.Equal(map[string]any{"id": "foo", "count": float64(2)}, attributes)

	_, err = parseAttributes(`{}`)
	require.Error(err)

	_, err = parseAttributes(`not json`)
	require.Error(err)
}
