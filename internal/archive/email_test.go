package archive

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildReportMIME(t *testing.T) {
	snapshot := []byte("Timestamp,Network\n2026-08-29 10:00:00,mainnet\n")
	now := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

	raw := string(buildReportMIME("bot@example.com", "ops@example.com", snapshot, now))

	require.Contains(t, raw, "From: bot@example.com\r\n")
	require.Contains(t, raw, "To: ops@example.com\r\n")
	require.Contains(t, raw, "Subject: Mint Records - 2026-08-29\r\n")
	require.Contains(t, raw, `filename="mint_records_20260829.csv"`)

	// The attachment must round-trip through its base64 encoding.
	encoded := base64.StdEncoding.EncodeToString(snapshot)
	require.Contains(t, strings.ReplaceAll(raw, "\r\n", ""), encoded)

	// Closing boundary terminates the message.
	require.True(t, strings.HasSuffix(raw, "--"+mimeBoundary+"--\r\n"))
}

func TestBuildReportMIMEFoldsLongAttachments(t *testing.T) {
	snapshot := []byte(strings.Repeat("a,b,c,d,e,f\n", 50))
	raw := string(buildReportMIME("bot@example.com", "ops@example.com", snapshot, time.Now()))

	inAttachment := false
	for _, line := range strings.Split(raw, "\r\n") {
		if strings.Contains(line, "Content-Transfer-Encoding: base64") {
			inAttachment = true
			continue
		}
		if inAttachment && strings.HasPrefix(line, "--") {
			break
		}
		if inAttachment {
			require.LessOrEqual(t, len(line), 76)
		}
	}
}
