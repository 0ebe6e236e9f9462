package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gomail/gomail"
)

// ---------------------------------------------------------------------------
// Email
// ---------------------------------------------------------------------------

// reportMessage builds the mail carrying the report as a PDF attachment.
func reportMessage(cfg *Config, r *Report, filter ReportFilter) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", cfg.Email.From)
	msg.SetHeader("To", cfg.Email.To)
	msg.SetHeader("Subject", fmt.Sprintf("%s (%s)", reportTitle, reportPeriodCaption(filter)))
	msg.SetBody("text/html", fmt.Sprintf("%s attached.<br>%s, %d pages.<br>",
		reportTitle, reportPeriodCaption(filter), r.Pages))

	msg.Attach(r.FileName,
		gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(r.Data)
			return err
		}),
	)
	return msg
}

// sendReport mails the generated report via SMTP.
func sendReport(cfg *Config, r *Report, filter ReportFilter) error {
	if cfg.SMTP.Host == "" || cfg.Email.To == "" {
		return errors.New("smtp.host and email.to are required to send reports")
	}
	dialer := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	if err := dialer.DialAndSend(reportMessage(cfg, r, filter)); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	return nil
}
