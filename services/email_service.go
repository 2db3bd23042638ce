package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"siteguard/config"
	"siteguard/models"
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

const dailyReportSubject = "{{project_name}}: daily site report for {{date}}"

const dailyReportBody = `<h2>Daily Site Report: {{project_name}}</h2>
<p>Hello {{user_name}},</p>
<p>Stage: {{stage}}<br>Progress: {{progress}}%<br>Safety score: {{safety_score}}/100</p>
<h3>Executive Summary</h3>
<p>{{executive_summary}}</p>
<h3>Progress Update</h3>
<p>{{progress_update}}</p>
<h3>Key Issues</h3>
<ul>{{key_issues}}</ul>
<h3>Recommendations</h3>
<ul>{{recommendations}}</ul>
<p>The full report is attached as a PDF.</p>`

// ReportMailer emails daily reports with the PDF attached.
type ReportMailer struct {
	cfg  config.SMTPConfig
	send SendFunc
	log  *zap.Logger
}

func NewReportMailer(cfg config.SMTPConfig, log *zap.Logger) *ReportMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportMailer{cfg: cfg, send: smtp.SendMail, log: log}
}

func (m *ReportMailer) Enabled() bool { return m.cfg.Enabled() }

// SendDailyReport renders doc and mails it to the user.
func (m *ReportMailer) SendDailyReport(ctx context.Context, to models.User, doc models.DailyReportDocument) error {
	if !m.Enabled() {
		return ErrMailDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	vars := map[string]string{
		"project_name":      doc.Workspace.Name,
		"user_name":         to.Name,
		"date":              doc.Report.Date,
		"stage":             doc.Workspace.Stage,
		"progress":          fmt.Sprint(doc.Workspace.Progress),
		"safety_score":      fmt.Sprint(doc.Workspace.SafetyScore),
		"executive_summary": doc.Report.ExecutiveSummary,
		"progress_update":   doc.Report.ProgressUpdate,
	}
	subject := processTemplate(dailyReportSubject, vars)

	for k, v := range vars {
		vars[k] = html.EscapeString(v)
	}
	vars["key_issues"] = htmlList(doc.Report.KeyIssues)
	vars["recommendations"] = htmlList(doc.Report.Recommendations)
	body := processTemplate(dailyReportBody, vars)

	var pdf bytes.Buffer
	if err := RenderDailyReportPDF(doc, &pdf); err != nil {
		return err
	}

	msg, err := buildMessage(m.cfg.From, to.Email, subject, body, DailyReportFilename(doc.Workspace, doc.Report.Date), pdf.Bytes())
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{to.Email}, msg); err != nil {
		return fmt.Errorf("send report email: %w", err)
	}

	m.log.Info("daily report emailed",
		zap.String("workspace_id", doc.Workspace.ID),
		zap.String("to", to.Email))
	return nil
}

// processTemplate replaces {{key}} placeholders with their values.
func processTemplate(templateStr string, vars map[string]string) string {
	result := templateStr
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

func htmlList(items []string) string {
	if len(items) == 0 {
		return "<li>None reported.</li>"
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString("<li>" + html.EscapeString(item) + "</li>")
	}
	return b.String()
}

// convertHTMLToText converts HTML content to plain text for the text part.
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "ul":
				text.WriteString("\n")
			case "li":
				text.WriteString("\n- ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}
	extractText(doc)

	result := text.String()
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(result)
}

// buildMessage assembles a multipart/mixed message: a text/html alternative
// followed by the PDF attachment.
func buildMessage(from, to, subject, htmlBody, filename string, attachment []byte) ([]byte, error) {
	var alt bytes.Buffer
	altWriter := multipart.NewWriter(&alt)
	for _, part := range []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", convertHTMLToText(htmlBody)},
		{"text/html; charset=UTF-8", htmlBody},
	} {
		w, err := altWriter.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, fmt.Errorf("build email: %w", err)
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("build email: %w", err)
		}
	}
	if err := altWriter.Close(); err != nil {
		return nil, fmt.Errorf("build email: %w", err)
	}

	var body bytes.Buffer
	mixed := multipart.NewWriter(&body)

	altPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"multipart/alternative; boundary=" + altWriter.Boundary()},
	})
	if err != nil {
		return nil, fmt.Errorf("build email: %w", err)
	}
	if _, err := altPart.Write(alt.Bytes()); err != nil {
		return nil, fmt.Errorf("build email: %w", err)
	}

	pdfPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"application/pdf"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": filename})},
	})
	if err != nil {
		return nil, fmt.Errorf("build email: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(attachment)
	for len(encoded) > 76 {
		if _, err := pdfPart.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return nil, fmt.Errorf("build email: %w", err)
		}
		encoded = encoded[76:]
	}
	if _, err := pdfPart.Write([]byte(encoded)); err != nil {
		return nil, fmt.Errorf("build email: %w", err)
	}
	if err := mixed.Close(); err != nil {
		return nil, fmt.Errorf("build email: %w", err)
	}

	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=" + mixed.Boundary(),
		"",
		"",
	}
	return append([]byte(strings.Join(headers, "\r\n")), body.Bytes()...), nil
}
