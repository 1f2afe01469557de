package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/smtp"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/jordan-wright/email"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/utils"
)

// EmailService define a interface para o serviço de e-mail.
type EmailService interface {
	// SendQuestionnaire envia o link do questionário de anamnese a um cliente recém-cadastrado.
	SendQuestionnaire(to, clientName string) error
	// SendPlanExpiryNotice avisa o cliente de que o plano vence em breve.
	SendPlanExpiryNotice(to, clientName string, endDate time.Time) error
}

const questionnaireText = `Olá, {{.Name}}!

Seja bem-vindo(a) à {{.AppName}}.
Para prepararmos sua primeira consulta, responda o questionário de anamnese:
{{.URL}}

Até breve!
`

const questionnaireHTML = `<p>Olá, <strong>{{.Name}}</strong>!</p>
<p>Seja bem-vindo(a) à {{.AppName}}.</p>
<p>Para prepararmos sua primeira consulta, responda o
<a href="{{.URL}}">questionário de anamnese</a>.</p>
<p>Até breve!</p>
`

const expiryText = `Olá, {{.Name}}!

Seu plano de acompanhamento na {{.AppName}} vence em {{.EndDate}}.
Entre em contato para renovar e manter seu acompanhamento em dia.
`

type emailServiceImpl struct {
	cfg *core.Config

	questionnaireText *texttemplate.Template
	questionnaireHTML *htmltemplate.Template
	expiryText        *texttemplate.Template

	// send permite substituir o envio SMTP em testes.
	send func(e *email.Email) error
}

// NewEmailService cria uma nova instância de EmailService.
// Retorna ErrConfiguration se o SMTP não estiver configurado (exceto em modo debug,
// em que os e-mails são apenas registrados no log).
func NewEmailService(cfg *core.Config) (EmailService, error) {
	if !cfg.AppDebug && !cfg.EmailEnabled() {
		return nil, fmt.Errorf("%w: configuração de SMTP incompleta (servidor, usuário ou remetente faltando)", core.ErrConfiguration)
	}
	s := &emailServiceImpl{
		cfg:               cfg,
		questionnaireText: texttemplate.Must(texttemplate.New("questionario.txt").Parse(questionnaireText)),
		questionnaireHTML: htmltemplate.Must(htmltemplate.New("questionario.html").Parse(questionnaireHTML)),
		expiryText:        texttemplate.Must(texttemplate.New("vencimento.txt").Parse(expiryText)),
	}
	s.send = s.sendSMTP
	return s, nil
}

func (s *emailServiceImpl) SendQuestionnaire(to, clientName string) error {
	if strings.TrimSpace(s.cfg.QuestionnaireURL) == "" {
		return fmt.Errorf("%w: APP_QUESTIONNAIRE_URL não configurada", core.ErrConfiguration)
	}
	data := map[string]interface{}{
		"Name":    clientName,
		"AppName": s.cfg.AppName,
		"URL":     s.cfg.QuestionnaireURL,
	}
	var text, html bytes.Buffer
	if err := s.questionnaireText.Execute(&text, data); err != nil {
		return fmt.Errorf("%w: falha ao renderizar template de texto: %v", core.ErrInternal, err)
	}
	if err := s.questionnaireHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("%w: falha ao renderizar template HTML: %v", core.ErrInternal, err)
	}

	e := s.newEmail(to, s.cfg.QuestionnaireSubject)
	e.Text = text.Bytes()
	e.HTML = html.Bytes()
	return s.dispatch(e)
}

func (s *emailServiceImpl) SendPlanExpiryNotice(to, clientName string, endDate time.Time) error {
	var text bytes.Buffer
	err := s.expiryText.Execute(&text, map[string]interface{}{
		"Name":    clientName,
		"AppName": s.cfg.AppName,
		"EndDate": utils.FormatDateBR(endDate),
	})
	if err != nil {
		return fmt.Errorf("%w: falha ao renderizar template de texto: %v", core.ErrInternal, err)
	}
	e := s.newEmail(to, "Seu plano está perto do vencimento")
	e.Text = text.Bytes()
	return s.dispatch(e)
}

func (s *emailServiceImpl) newEmail(to, subject string) *email.Email {
	e := email.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", s.cfg.AppName, s.cfg.EmailSender)
	e.To = []string{to}
	e.Subject = subject
	return e
}

func (s *emailServiceImpl) dispatch(e *email.Email) error {
	if s.cfg.AppDebug {
		appLogger.Debugf("--- SIMULAÇÃO DE E-MAIL ---\nPara: %v\nAssunto: %s\n%s\n--- FIM SIMULAÇÃO ---",
			e.To, e.Subject, utils.TruncateString(string(e.Text), 500))
		return nil
	}
	if err := s.send(e); err != nil {
		appLogger.Errorf("Falha ao enviar e-mail para %v: %v", e.To, err)
		return fmt.Errorf("%w: %v", core.ErrEmail, err)
	}
	appLogger.Infof("E-mail enviado para %v: %s", e.To, e.Subject)
	return nil
}

func (s *emailServiceImpl) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.EmailSMTPServer, s.cfg.EmailPort)
	auth := smtp.PlainAuth("", s.cfg.EmailUser, s.cfg.EmailPassword, s.cfg.EmailSMTPServer)
	return e.Send(addr, auth)
}
