package extractor

import (
	"regexp"
	"strings"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/pkg/utils"
)

const (
	NoSubject = "No subject found"
	NoSender  = "No sender found"
	NoContent = "No content found"
)

var (
	emailPattern       = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	systemSenderPrefix = regexp.MustCompile(`(?i)^(no-?reply|do-?not-?reply|donotreply|mailer-daemon|postmaster|bounces?|notifications?|system)([+._\-@]|$)`)
)

// IsValidSender accepts a real mailbox and rejects system/no-reply addresses.
func IsValidSender(addr string) bool {
	addr = strings.TrimSpace(addr)
	if !emailPattern.MatchString(addr) || emailPattern.FindString(addr) != addr {
		return false
	}
	return !systemSenderPrefix.MatchString(addr)
}

func trimAngles(s string) string {
	return strings.Trim(strings.TrimSpace(s), "<>")
}

// subjectFromTitle pulls the subject out of "Subject - me@gmail.com - Gmail".
func subjectFromTitle(s string) string {
	if !strings.HasSuffix(s, "Gmail") {
		return ""
	}
	parts := strings.Split(s, " - ")
	if len(parts) < 3 {
		return ""
	}
	subject := strings.Join(parts[:len(parts)-2], " - ")
	switch strings.ToLower(subject) {
	case "inbox", "sent mail", "drafts", "starred", "spam", "trash", "all mail":
		return ""
	}
	return subject
}

var gmailSubjectRules = []Rule{
	{Selector: "h2.hP"},
	{Selector: "h2[data-thread-perm-id]"},
	{Selector: "h2[data-legacy-thread-id]"},
	{Selector: ".ha h2"},
	{Selector: "[role='main'] h2"},
	{Selector: "title", Transform: subjectFromTitle},
}

var gmailSenderRules = []Rule{
	{Selector: "span.gD[email]", Attr: "email", Validate: IsValidSender},
	{Selector: ".gD[email]", Attr: "email", Validate: IsValidSender},
	{Selector: "[data-hovercard-id*='@']", Attr: "data-hovercard-id", Validate: IsValidSender},
	{Selector: "span[email]", Attr: "email", Validate: IsValidSender},
	{Selector: ".go", Transform: trimAngles, Validate: IsValidSender},
}

var gmailReplyToRules = []Rule{
	{Selector: "table.ajC tr:contains('reply-to') span[email]", Attr: "email", Validate: IsValidSender},
	{Selector: "[data-reply-to]", Attr: "data-reply-to", Validate: IsValidSender},
}

var gmailBodyRules = []Rule{
	{Selector: ".a3s.aiL"},
	{Selector: "div[data-message-id] .a3s"},
	{Selector: ".a3s"},
	{Selector: ".ii.gt"},
	{Selector: "[role='listitem'] [dir='ltr']", Validate: minLen(20)},
}

// senderFromText is the last tier: scan visible page text for addresses.
func senderFromText(root Node) (string, bool) {
	scope := root
	if body, ok := first(root, "body"); ok {
		scope = body
	}
	for _, candidate := range emailPattern.FindAllString(scope.Text(), -1) {
		if IsValidSender(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// ExtractGmail scrapes the open Gmail thread. Missing fields degrade to
// sentinel text so analysis can still run on partial data. The second result
// reports whether every field was found.
func ExtractGmail(doc Node, pageURL string) (*entity.GmailData, bool) {
	if doc == nil {
		return nil, false
	}
	complete := true

	subject, ok := FirstMatch(doc, gmailSubjectRules)
	if !ok {
		subject, complete = NoSubject, false
	}

	sender, ok := FirstMatch(doc, gmailSenderRules)
	if !ok {
		sender, ok = senderFromText(doc)
	}
	if !ok {
		sender, complete = NoSender, false
	}

	body, ok := FirstMatch(doc, gmailBodyRules)
	if !ok {
		body, complete = NoContent, false
	}

	replyTo, _ := FirstMatch(doc, gmailReplyToRules)
	if strings.EqualFold(replyTo, sender) {
		replyTo = ""
	}

	return &entity.GmailData{
		Subject:      subject,
		FromEmail:    sender,
		ReplyToEmail: replyTo,
		Content:      utils.CleanText(body),
		URL:          pageURL,
	}, complete
}
