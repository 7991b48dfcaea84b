package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mamahr/waitlist/internal/dom"
	"github.com/mamahr/waitlist/internal/landing"
	"github.com/mamahr/waitlist/internal/server"
	"github.com/mamahr/waitlist/internal/waitlist/application"
	"github.com/mamahr/waitlist/internal/waitlist/domain"
	"github.com/mamahr/waitlist/web"
)

var submitInput struct {
	name        string
	email       string
	role        string
	description string
	website     string
	human       bool
	url         string
	dump        bool
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Fill in and submit the landing page form once",
	Long: `Loads the embedded landing page, fills the waitlist form from the flags
and clicks submit, so the signup goes through the same validation, bot check
and dispatch as in the browser. Useful for checking Telegram and email
credentials.`,
	Example: `  waitlist submit --name "Анна" --email anna@example.com --role parent`,
	RunE:    runSubmit,
}

func init() {
	f := submitCmd.Flags()
	f.StringVar(&submitInput.name, "name", "", "Visitor name")
	f.StringVar(&submitInput.email, "email", "", "Visitor email")
	f.StringVar(&submitInput.role, "role", "", "student, parent or company")
	f.StringVar(&submitInput.description, "description", "", "Expectations (optional)")
	f.StringVar(&submitInput.website, "website", "", "Honeypot value; any value is rejected")
	f.BoolVar(&submitInput.human, "human", true, "Tick the human confirmation checkbox")
	f.StringVar(&submitInput.url, "url", "cli://waitlist", "Page URL recorded with the signup")
	f.BoolVar(&submitInput.dump, "dump", false, "Print the page HTML after submitting")
}

var errSubmitRejected = errors.New("submission was not sent")

func runSubmit(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	dispatcher, err := server.NewDispatcher(cfg, nil, logger)
	if err != nil {
		return err
	}
	if len(dispatcher.Channels()) == 0 {
		logger.Warn().Msg("no channels enabled; set TELEGRAM_ENABLED or EMAIL_ENABLED to deliver")
	}

	doc, err := dom.Parse(bytes.NewReader(web.IndexHTML))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	doc.OnAlert(func(message string) {
		fmt.Fprintf(out, "alert: %s\n", message)
	})

	page, err := landing.Mount(cmd.Context(), doc, landing.Options{
		Pipeline: application.NewPipeline(application.PipelineConfig{
			Notifier: dispatcher,
			Logger:   logger,
		}),
		Logger:         logger,
		Meta:           domain.RequestMeta{UserAgent: "waitlist-cli", URL: submitInput.url},
		DisableEffects: true,
	})
	if err != nil {
		return err
	}
	defer page.Close()

	fillForm(doc)
	if button := doc.Query(`#waitlistForm button[type="submit"]`); button != nil {
		button.Click()
	}

	outcome, ok := page.LastOutcome()
	if ok {
		for _, res := range outcome.Results {
			status := "ok"
			if !res.Success {
				status = res.Error
			}
			fmt.Fprintf(out, "  %s: %s\n", res.Service, status)
		}
	}
	if ok && outcome.State == application.StateSuccess {
		fmt.Fprintf(out, "signed up, position %s\n", doc.GetElementByID("positionNumber").Text())
	}
	if submitInput.dump {
		if err := dumpPage(out, doc); err != nil {
			return err
		}
	}
	if !ok || outcome.State != application.StateSuccess {
		return errSubmitRejected
	}
	return nil
}

// fillForm sets the form the way a visitor would: clicking the role and the
// human check, typing into the inputs.
func fillForm(doc *dom.Page) {
	if role := doc.Query(`.btn-role[data-role="` + submitInput.role + `"]`); role != nil && submitInput.role != "" {
		role.Click()
	}
	set := func(selector, value string) {
		if el := doc.Query(selector); el != nil {
			el.SetValue(value)
		}
	}
	set(`#waitlistForm [name="name"]`, submitInput.name)
	set(`#waitlistForm [name="email"]`, submitInput.email)
	set(`#waitlistForm [name="description"]`, submitInput.description)
	set(`#waitlistForm [name="website"]`, submitInput.website)

	if human := doc.GetElementByID("human"); human != nil && human.Checked() != submitInput.human {
		if label := doc.Query(".human-check"); label != nil {
			label.Click()
		}
	}
}

func dumpPage(out io.Writer, doc *dom.Page) error {
	html, err := doc.HTML()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, html)
	return err
}
