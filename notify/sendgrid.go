package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridDispatcher delivers messages as email through the SendGrid v3 API.
type SendgridDispatcher struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

// NewSendgrid returns a dispatcher sending from fromName <fromEmail>.
func NewSendgrid(key, fromName, fromEmail string) *SendgridDispatcher {
	return &SendgridDispatcher{
		key:        key,
		host:       sendgridHost,
		from:       sgmail.NewEmail(fromName, fromEmail),
		subjPrefix: "[" + fromName + "] ",
	}
}

// WithHost points the dispatcher at another API host.
func (d *SendgridDispatcher) WithHost(host string) *SendgridDispatcher {
	d.host = host
	return d
}

func (d *SendgridDispatcher) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = d.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(d.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Body))
	return m
}

func (d *SendgridDispatcher) Dispatch(_ context.Context, msg Message) error {
	if !msg.HasRecipients() {
		return nil
	}
	req := sendgrid.GetRequest(d.key, sendgridEndpoint, d.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(d.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
