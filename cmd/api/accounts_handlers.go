package main

import (
	"errors"
	"net/http"

	"reelsync/proj/internal/domain/models"
	"reelsync/proj/internal/services/accounts"
)

type credentialsInput struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (app *Application) signup(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if !app.readValidated(w, r, &input) {
		return
	}
	user, err := app.services.Accounts.Register(r.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrUsernameTaken) {
			app.Http.Conflict(w, r, "Username already exists.")
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Created(w, r, envelop{"username": user.Username}, "Registered! Now log in.")
}

func (app *Application) login(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if !app.readValidated(w, r, &input) {
		return
	}
	user, err := app.services.Accounts.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrUserNotFound):
			app.Http.NotFound(w, r, "User not found.")
		case errors.Is(err, accounts.ErrWrongPassword):
			app.Http.Unauthorized(w, r, "Wrong password.")
		default:
			app.Http.ServerError(w, r, err, "")
		}
		return
	}
	sess, err := app.services.Sessions.Create(user.Username)
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	token, err := app.newSessionToken(sess)
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"token": token}, "Logged in!")
}

// logout clears all session state unconditionally.
func (app *Application) logout(w http.ResponseWriter, r *http.Request) {
	sess := app.sessionFromCtx(r)
	sess.Clear()
	app.services.Sessions.Delete(sess.ID)
	app.Http.Ok(w, r, nil, "Logged out.")
}

func (app *Application) getCredentials(w http.ResponseWriter, r *http.Request) {
	sess := app.sessionFromCtx(r)
	creds, err := app.services.Accounts.GetCredentials(r.Context(), sess.Username)
	if err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			app.Http.NotFound(w, r, "User not found.")
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"credentials": creds}, "")
}

type saveCredentialsInput struct {
	NotionToken string `json:"notion_token" validate:"required"`
	DatabaseID  string `json:"database_id" validate:"required"`
	TMDBAPIKey  string `json:"tmdb_api_key" validate:"required"`
}

func (app *Application) saveCredentials(w http.ResponseWriter, r *http.Request) {
	sess := app.sessionFromCtx(r)
	var input saveCredentialsInput
	if !app.readValidated(w, r, &input) {
		return
	}
	creds := models.Credentials{
		NotionToken: input.NotionToken,
		DatabaseID:  input.DatabaseID,
		TMDBAPIKey:  input.TMDBAPIKey,
	}
	if err := app.services.Accounts.SaveCredentials(r.Context(), sess.Username, creds); err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			app.Http.NotFound(w, r, "User not found.")
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, nil, "Credentials saved!")
}
