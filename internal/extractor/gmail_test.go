package extractor

import "testing"

const gmailThreadHTML = `<!DOCTYPE html>
<html><head><title>Urgent: verify your account - me@gmail.com - Gmail</title></head>
<body>
  <div role="main">
    <div class="ha"><h2 class="hP" data-thread-perm-id="thread-f:1">Urgent: verify your account</h2></div>
    <div data-message-id="#msg-f:1">
      <span class="gD" email="security@paypa1-support.com" name="PayPal">PayPal</span>
      <span class="go">&lt;security@paypa1-support.com&gt;</span>
      <table class="ajC"><tr><td>reply-to:</td><td><span email="collect@evil.example">collect</span></td></tr></table>
      <div class="a3s aiL"><div dir="ltr">Dear customer,
         your account has been   limited. Verify now at http://paypa1.example/login</div></div>
    </div>
  </div>
  <script>var leaked = "admin@internal.example";</script>
</body></html>`

func TestExtractGmailStructured(t *testing.T) {
	doc, err := ParseHTML(gmailThreadHTML)
	if err != nil {
		t.Fatal(err)
	}
	data, complete := ExtractGmail(doc, "https://mail.google.com/mail/u/0/#inbox/abc")
	if !complete {
		t.Error("expected a complete extraction")
	}
	if data.Subject != "Urgent: verify your account" {
		t.Errorf("Subject = %q", data.Subject)
	}
	if data.FromEmail != "security@paypa1-support.com" {
		t.Errorf("FromEmail = %q", data.FromEmail)
	}
	if data.ReplyToEmail != "collect@evil.example" {
		t.Errorf("ReplyToEmail = %q", data.ReplyToEmail)
	}
	want := "Dear customer, your account has been limited. Verify now at http://paypa1.example/login"
	if data.Content != want {
		t.Errorf("Content = %q, want %q", data.Content, want)
	}
	if data.URL != "https://mail.google.com/mail/u/0/#inbox/abc" {
		t.Errorf("URL = %q", data.URL)
	}
}

func TestExtractGmailFallbacks(t *testing.T) {
	html := `<html><head><title>Invoice overdue - me@gmail.com - Gmail</title></head><body>
	  <div>From: noreply@service.example on behalf of billing@vendor.example</div>
	</body></html>`
	doc, err := ParseHTML(html)
	if err != nil {
		t.Fatal(err)
	}
	data, complete := ExtractGmail(doc, "")
	if complete {
		t.Error("expected a partial extraction")
	}
	if data.Subject != "Invoice overdue" {
		t.Errorf("Subject from title = %q", data.Subject)
	}
	// The text tier skips the no-reply address.
	if data.FromEmail != "billing@vendor.example" {
		t.Errorf("FromEmail from text = %q", data.FromEmail)
	}
	if data.Content != NoContent {
		t.Errorf("Content = %q, want sentinel", data.Content)
	}
}

func TestExtractGmailSentinels(t *testing.T) {
	doc, err := ParseHTML(`<html><head><title>Inbox - me@gmail.com - Gmail</title></head><body></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	data, complete := ExtractGmail(doc, "")
	if complete {
		t.Error("expected a partial extraction")
	}
	if data.Subject != NoSubject || data.FromEmail != NoSender || data.Content != NoContent {
		t.Errorf("got %+v, want all sentinels", data)
	}
	if data, _ := ExtractGmail(nil, ""); data != nil {
		t.Error("ExtractGmail(nil) should return nil")
	}
}
