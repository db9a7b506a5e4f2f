package mail

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tazhibayda/account-service/internal/helper"
	"github.com/tazhibayda/account-service/internal/queue"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Sender delivers reset links. Without an SMTP host it only logs the message.
type Sender struct {
	cfg  SMTPConfig
	log  *zap.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(cfg SMTPConfig, log *zap.Logger) *Sender {
	return &Sender{cfg: cfg, log: log, send: smtp.SendMail}
}

func (s *Sender) SendResetLink(to, url string) error {
	subject := "Reset your password"
	body := "We received a request to reset your password.\r\n\r\n" +
		"Open the link below within 5 minutes to choose a new one:\r\n" + url + "\r\n\r\n" +
		"If you did not ask for this, ignore this email.\r\n"

	if s.cfg.Host == "" {
		s.log.Info("mail (dry run)", zap.String("to_ref", helper.EmailRef(to)), zap.String("subject", subject))
		return nil
	}

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(addr, auth, s.cfg.From, []string{to}, buildMessage(s.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	s.log.Info("mail sent", zap.String("to_ref", helper.EmailRef(to)))
	return nil
}

// HandleEvent is the notify worker's handler for password.reset_requested.
func (s *Sender) HandleEvent(body []byte) error {
	var ev queue.PasswordResetRequested
	if err := json.Unmarshal(body, &ev); err != nil {
		// a malformed message will never succeed; drop it instead of requeueing forever
		s.log.Error("bad reset event", zap.Error(err))
		return nil
	}
	if ev.Email == "" || ev.ResetURL == "" {
		s.log.Warn("incomplete reset event")
		return nil
	}
	err := s.SendResetLink(ev.Email, ev.ResetURL)
	var rej *textproto.Error
	if errors.As(err, &rej) && rej.Code >= 500 {
		// permanent rejection; redelivery would fail the same way
		s.log.Error("reset mail rejected", zap.String("to_ref", helper.EmailRef(ev.Email)), zap.Int("code", rej.Code))
		return queue.Drop(err)
	}
	return err
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
