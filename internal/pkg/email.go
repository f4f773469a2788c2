package pkg

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log/slog"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string // 发件人邮箱
	Password string // 授权码/密码
	From     string // 显示的发件人，可与 Username 相同
}

// Enabled 未配置 SMTP 主机时只记录日志不发信
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func SendEmail(cfg SMTPConfig, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return d.DialAndSend(m)
}

var mailTemplates = template.Must(template.New("mail").Parse(`
{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background-color: #262335; color: white; padding: 20px; text-align: center;"><h1>MarsAI Festival</h1></div>
    <div style="padding: 20px; background-color: #f9f9f9;">{{template "body" .}}</div>
    <div style="padding: 20px; text-align: center; font-size: 12px; color: #666;">
      <p>MarsAI Festival - Marseille, La Plateforme</p>
      <p>Cet email a été envoyé automatiquement, merci de ne pas y répondre.</p>
    </div>
  </div>
</body>
</html>{{end}}

{{define "submission"}}
<h2>Bonjour {{.Firstname}} {{.Lastname}},</h2>
<p>Nous avons bien reçu votre soumission pour le film :</p>
<p style="font-size: 18px; color: #463699; font-weight: bold;">{{.Title}}</p>
<p>Votre film est actuellement <strong>en attente de validation</strong> par notre équipe.</p>
<p>Vous recevrez un email dès que le statut de votre soumission sera mis à jour.</p>
{{end}}

{{define "approval"}}
<h2>Félicitations {{.Firstname}} {{.Lastname}} !</h2>
<p>Votre film <strong style="color: #463699;">{{.Title}}</strong> a été <strong>accepté</strong> et figure désormais dans le catalogue du festival.</p>
{{end}}

{{define "rejection"}}
<h2>Bonjour {{.Firstname}} {{.Lastname}},</h2>
<p>Après examen, votre film <strong style="color: #463699;">{{.Title}}</strong> n'a pas été retenu pour cette édition.</p>
{{if .Reason}}<p><strong>Motif :</strong> {{.Reason}}</p>{{end}}
<p>Merci pour votre participation.</p>
{{end}}

{{define "invitation"}}
<h2>Bonjour,</h2>
<p>Vous êtes invité(e) à rejoindre le MarsAI Festival en tant que <strong>{{.Role}}</strong>.</p>
<div style="text-align: center; margin: 30px 0;">
  <a href="{{.Link}}" style="background-color: #463699; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Accepter l'invitation</a>
</div>
<p style="word-break: break-all;">{{.Link}}</p>
<p>Ce lien expire dans 7 jours.</p>
{{end}}
`))

// FilmMail 影片相关邮件的模板数据
type FilmMail struct {
	To        string
	Firstname string
	Lastname  string
	Title     string
	Reason    string
}

type InvitationMail struct {
	To   string
	Role string
	Link string
}

// Mailer 渲染 HTML 模板并通过 gomail 发送
type Mailer struct {
	cfg  SMTPConfig
	log  *slog.Logger
	send func(cfg SMTPConfig, to, subject, htmlBody string) error
}

func NewMailer(cfg SMTPConfig, log *slog.Logger) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	return &Mailer{cfg: cfg, log: log, send: SendEmail}
}

func (m *Mailer) SendSubmissionConfirmation(ctx context.Context, d FilmMail) error {
	return m.deliver(ctx, d.To, fmt.Sprintf("MarsAI Festival - Soumission reçue : %s", d.Title), "submission", d)
}

func (m *Mailer) SendApproval(ctx context.Context, d FilmMail) error {
	return m.deliver(ctx, d.To, fmt.Sprintf("MarsAI Festival - Votre film \"%s\" a été accepté !", d.Title), "approval", d)
}

func (m *Mailer) SendRejection(ctx context.Context, d FilmMail) error {
	return m.deliver(ctx, d.To, fmt.Sprintf("MarsAI Festival - Décision concernant \"%s\"", d.Title), "rejection", d)
}

func (m *Mailer) SendInvitation(ctx context.Context, d InvitationMail) error {
	return m.deliver(ctx, d.To, "MarsAI Festival - Invitation", "invitation", d)
}

func (m *Mailer) deliver(ctx context.Context, to, subject, name string, data any) error {
	body, err := render(name, data)
	if err != nil {
		return err
	}
	if !m.cfg.Enabled() {
		m.log.InfoContext(ctx, "smtp not configured, mail logged only",
			slog.String("to", to), slog.String("subject", subject))
		return nil
	}
	if err = m.send(m.cfg, to, subject, body); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.log.InfoContext(ctx, "mail sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}

func render(name string, data any) (string, error) {
	t, err := mailTemplates.Clone()
	if err != nil {
		return "", err
	}
	// 每封邮件把自己的正文挂到公共布局的 body 上
	if _, err = t.New("body").Parse(`{{template "` + name + `" .}}`); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err = t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
