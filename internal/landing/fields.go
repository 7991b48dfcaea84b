package landing

import (
	"strings"

	"github.com/mamahr/waitlist/internal/dom"
	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

const (
	errorClass      = "error"
	fieldErrorClass = "field-error"
	fieldErrorCSS   = "color: #EF4444; font-size: 0.8rem; margin-top: 4px; font-weight: 600;"
)

func fieldKind(field dom.Element) domain.FieldKind {
	if typ, _ := field.Attr("type"); strings.EqualFold(typ, "email") {
		return domain.FieldEmail
	}
	name, _ := field.Attr("name")
	switch name {
	case "name":
		return domain.FieldName
	case "description":
		return domain.FieldDescription
	}
	return domain.FieldOther
}

// validateField marks field and its container with the inline rule result.
func validateField(doc dom.Document, field dom.Element) bool {
	res := domain.ValidateField(fieldKind(field), field.Value())
	if !res.Valid {
		field.AddClass(errorClass)
		showFieldError(doc, field, res.Message)
		return false
	}
	field.RemoveClass(errorClass)
	hideFieldError(field)
	return true
}

func showFieldError(doc dom.Document, field dom.Element, message string) {
	parent := field.Parent()
	if parent == nil {
		return
	}
	el := parent.Query("." + fieldErrorClass)
	if el == nil {
		el = doc.CreateElement("div")
		el.SetAttr("class", fieldErrorClass)
		el.SetCSSText(fieldErrorCSS)
		parent.AppendChild(el)
	}
	el.SetText(message)
}

func hideFieldError(field dom.Element) {
	parent := field.Parent()
	if parent == nil {
		return
	}
	if el := parent.Query("." + fieldErrorClass); el != nil {
		el.Remove()
	}
}

// readForm captures the form state the way FormData does at submit time.
func readForm(doc dom.Document, form dom.Element) domain.FormInput {
	var input domain.FormInput
	if role := form.Query(`input[name="role"][checked]`); role != nil {
		input.Role = role.Value()
	}
	input.Name = fieldValue(form, "name")
	input.Email = fieldValue(form, "email")
	input.Description = fieldValue(form, "description")
	input.Honeypot = fieldValue(form, "website")
	if human := doc.GetElementByID("human"); human != nil {
		input.Human = human.Checked()
	}
	return input
}

func fieldValue(form dom.Element, name string) string {
	el := form.Query(`[name="` + name + `"]`)
	if el == nil {
		return ""
	}
	return el.Value()
}
