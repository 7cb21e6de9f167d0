package controllers

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/cppla/yatube/models"
)

const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// formField describes one input of a form the client should render.
type formField struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Label    string        `json:"label"`
	Required bool          `json:"required"`
	HelpText string        `json:"help_text,omitempty"`
	Choices  []fieldChoice `json:"choices,omitempty"`
}

type fieldChoice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// formPayload is the "form" context: fields, bound values and field-level errors.
type formPayload struct {
	Fields []formField       `json:"fields"`
	Values map[string]any    `json:"values"`
	Errors map[string]string `json:"errors,omitempty"`
	Extra  map[string]any    `json:"extra,omitempty"`
}

type postInput struct {
	Text  string `form:"text" json:"text" binding:"required"`
	Group string `form:"group" json:"group"`
}

type commentInput struct {
	Text string `form:"text" json:"text" binding:"required"`
}

type signupInput struct {
	FirstName string `form:"first_name" json:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" json:"last_name" binding:"max=150"`
	Username  string `form:"username" json:"username" binding:"required,min=3,max=150"`
	Email     string `form:"email" json:"email" binding:"omitempty,email"`
	Password  string `form:"password" json:"password" binding:"required,min=6"`
}

type loginInput struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
	Next     string `form:"next" json:"next"`
}

func postForm(groups []models.Group, values map[string]any, errs map[string]string) formPayload {
	choices := make([]fieldChoice, 0, len(groups)+1)
	choices = append(choices, fieldChoice{Value: "", Label: "---------"})
	for _, g := range groups {
		choices = append(choices, fieldChoice{Value: fmt.Sprint(g.ID), Label: g.String()})
	}
	return formPayload{
		Fields: []formField{
			{Name: "text", Type: "textarea", Label: "Текст поста", Required: true, HelpText: "Текст нового поста"},
			{Name: "group", Type: "select", Label: "Группа", HelpText: "Группа, к которой будет относиться пост", Choices: choices},
			{Name: "image", Type: "image", Label: "Картинка", HelpText: "Загрузите картинку"},
		},
		Values: nonNilValues(values),
		Errors: errs,
	}
}

func commentForm() formPayload {
	return formPayload{
		Fields: []formField{
			{Name: "text", Type: "textarea", Label: "Текст комментария", Required: true},
		},
		Values: map[string]any{},
	}
}

func signupForm(values map[string]any, errs map[string]string) formPayload {
	return formPayload{
		Fields: []formField{
			{Name: "first_name", Type: "text", Label: "Имя"},
			{Name: "last_name", Type: "text", Label: "Фамилия"},
			{Name: "username", Type: "text", Label: "Имя пользователя", Required: true,
				HelpText: "150 characters or fewer. Letters, digits and @/./+/-/_ only."},
			{Name: "email", Type: "email", Label: "Адрес электронной почты"},
			{Name: "password", Type: "password", Label: "Пароль", Required: true},
		},
		Values: nonNilValues(values),
		Errors: errs,
	}
}

func loginForm(next string, values map[string]any, errs map[string]string) formPayload {
	return formPayload{
		Fields: []formField{
			{Name: "username", Type: "text", Label: "Имя пользователя", Required: true},
			{Name: "password", Type: "password", Label: "Пароль", Required: true},
		},
		Values: nonNilValues(values),
		Errors: errs,
		Extra:  map[string]any{"next": next},
	}
}

func nonNilValues(v map[string]any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	return v
}

// fieldErrors translates binding validation failures into {field: message}.
// ok is false when err is not a validation error (e.g. a malformed body).
func fieldErrors(err error) (map[string]string, bool) {
	out := map[string]string{}
	if err == nil {
		return out, true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	for _, fe := range verrs {
		out[snakeCase(fe.Field())] = fieldMessage(fe)
	}
	return out, true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	default:
		return "Enter a valid value."
	}
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
