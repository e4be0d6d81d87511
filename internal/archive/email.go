package archive

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/core-coin/gutta/pkg/logger"
)

const mimeBoundary = "GUTTA-REPORT-BOUNDARY"

// Emailer sends the daily report through SES with the ledger CSV attached.
type Emailer struct {
	logger *logger.Logger
	client *sesv2.Client
	sender string
}

func NewEmailer(log *logger.Logger, cfg aws.Config, sender string) *Emailer {
	return &Emailer{
		logger: log,
		client: sesv2.NewFromConfig(cfg),
		sender: sender,
	}
}

func (e *Emailer) EmailReport(ctx context.Context, snapshot []byte, recipient string) error {
	raw := buildReportMIME(e.sender, recipient, snapshot, time.Now())

	_, err := e.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(e.sender),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send report email to %s: %w", recipient, err)
	}

	e.logger.Infof("daily report emailed to %s", recipient)
	return nil
}

// buildReportMIME assembles a multipart/mixed message with a plain-text
// body and the ledger CSV as a base64 attachment. SES raw mode expects
// the full RFC 5322 message including headers.
func buildReportMIME(sender, recipient string, snapshot []byte, now time.Time) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", sender)
	fmt.Fprintf(&buf, "To: %s\r\n", recipient)
	fmt.Fprintf(&buf, "Subject: Mint Records - %s\r\n", now.Format("2006-01-02"))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", mimeBoundary)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	fmt.Fprintf(&buf, "Drip Minting Bot - Daily Report\r\n\r\nDate: %s\r\n\r\n", now.Format("2006-01-02 15:04:05"))
	buf.WriteString("Attached is the complete minting records CSV file.\r\n")
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
	buf.WriteString("Content-Type: text/csv\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n", fmt.Sprintf("mint_records_%s.csv", now.Format("20060102")))
	buf.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString(snapshot)
	// Fold the base64 payload at 76 columns per RFC 2045.
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s--\r\n", mimeBoundary)
	return buf.Bytes()
}
