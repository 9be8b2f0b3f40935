package timeoff

import (
	"fmt"
	"net/mail"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/notify"
)

func address(e generic.Employee) mail.Address {
	return mail.Address{Name: e.Name, Address: e.Email}
}

func describe(r TimeOffRequest) string {
	if r.IsHalfDay {
		return fmt.Sprintf("half day on %s", r.StartDate)
	}
	if r.LastDay().Equal(r.StartDate) {
		return r.StartDate.String()
	}
	return fmt.Sprintf("%s to %s", r.StartDate, r.LastDay())
}

func submittedMessage(r TimeOffRequest, requester generic.Employee, approvers []generic.Employee) notify.Message {
	msg := notify.Message{
		Event:          notify.EventRequestSubmitted,
		OrganizationID: string(r.OrganizationID),
		SubjectID:      r.ID,
		Subject:        fmt.Sprintf("%s requested time off", requester.Name),
		Body: fmt.Sprintf("%s requested %s of %s (%s days). Reason: %s",
			requester.Name, r.Kind, describe(r), r.Amount().Days(), r.Reason),
	}
	for _, a := range approvers {
		if a.ID != requester.ID && a.Role.CanApprove() {
			msg.To = append(msg.To, address(a))
		}
	}
	return msg
}

func decisionMessage(event notify.Event, r TimeOffRequest, emp generic.Employee, a generic.Approval) notify.Message {
	var subject, body string
	switch event {
	case notify.EventRequestApproved:
		subject = "Your time off was approved"
		body = fmt.Sprintf("Your %s request for %s was approved.", r.Kind, describe(r))
	case notify.EventRequestRejected:
		subject = "Your time off was rejected"
		body = fmt.Sprintf("Your %s request for %s was rejected: %s", r.Kind, describe(r), a.RejectionReason)
	default:
		subject = "Your time off was cancelled"
		body = fmt.Sprintf("Your %s request for %s was cancelled.", r.Kind, describe(r))
	}
	return notify.Message{
		Event:          event,
		OrganizationID: string(r.OrganizationID),
		SubjectID:      r.ID,
		To:             []mail.Address{address(emp)},
		Subject:        subject,
		Body:           body,
	}
}
