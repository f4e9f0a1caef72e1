package main

import (
	"errors"
	"net/http"

	"reelsync/proj/internal/clients/notion"
	"reelsync/proj/internal/clients/tmdb"
	"reelsync/proj/internal/services/workflow"
)

// handleWorkflowError maps workflow sentinels onto HTTP statuses. The
// split mirrors the step policy: guard failures are the caller's
// fault, upstream failures are gateways.
func (app *Application) handleWorkflowError(w http.ResponseWriter, r *http.Request, err error) {
	var notionErr *notion.APIError
	var tmdbErr *tmdb.APIError
	switch {
	case errors.Is(err, workflow.ErrCredentialsMissing):
		app.Http.BadRequest(w, r, "Save your API credentials first.")
	case errors.Is(err, workflow.ErrNoMovieChosen):
		app.Http.BadRequest(w, r, "Select a movie to continue.")
	case errors.Is(err, workflow.ErrInvalidSelection):
		app.Http.BadRequest(w, r, "Selection is out of range.")
	case errors.Is(err, workflow.ErrWrongStep):
		app.Http.Conflict(w, r, "That action is not available at this step.")
	case errors.Is(err, workflow.ErrPageUpdateFailed):
		app.Http.BadGateway(w, r, "Failed to update the page: "+err.Error())
	case errors.As(err, &notionErr), errors.As(err, &tmdbErr):
		app.Http.BadGateway(w, r, err.Error())
	default:
		app.Http.ServerError(w, r, err, "")
	}
}

func (app *Application) listMovies(w http.ResponseWriter, r *http.Request) {
	sess := app.sessionFromCtx(r)
	movies, err := app.services.Workflow.ListMovies(r.Context(), sess)
	if err != nil {
		// A failing movie database degrades to an empty list with the
		// failure reported, it never aborts the session.
		if errors.Is(err, workflow.ErrMovieBaseUnavailable) {
			app.Http.Ok(w, r, envelop{"movies": []any{}}, "Could not fetch movies from the movie database.")
			return
		}
		app.handleWorkflowError(w, r, err)
		return
	}
	msg := ""
	if len(movies) == 0 {
		msg = "No movies found."
	}
	app.Http.Ok(w, r, envelop{"movies": movies}, msg)
}

type choiceInput struct {
	Index int `json:"index" validate:"gte=0"`
}

func (app *Application) chooseMovie(w http.ResponseWriter, r *http.Request) {
	sess := app.sessionFromCtx(r)
	var input choiceInput
	if !app.readValidated(w, r, &input) {
		return
	}
	movie, err := app.services.Workflow.ChooseMovie(sess, input.Index)
	if err != nil {
		app.handleWorkflowError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movie": movie}, "")
}

type searchQuery struct {
	Query string `schema:"query"`
}

func (app *Application) searchCandidates(w http.ResponseWriter, r *http.Request) {
	sess := app.sessionFromCtx(r)
	var q searchQuery
	if !app.readQuery(w, r, &q) {
		return
	}
	candidates, err := app.services.Workflow.SearchCandidates(r.Context(), sess, q.Query)
	if err != nil {
		app.handleWorkflowError(w, r, err)
		return
	}
	msg := ""
	if len(candidates) == 0 {
		msg = "No results found in the catalog."
	}
	app.Http.Ok(w, r, envelop{"candidates": candidates}, msg)
}

func (app *Application) chooseCandidate(w http.ResponseWriter, r *http.Request) {
	sess := app.sessionFromCtx(r)
	var input choiceInput
	if !app.readValidated(w, r, &input) {
		return
	}
	candidate, err := app.services.Workflow.ChooseCandidate(sess, input.Index)
	if err != nil {
		app.handleWorkflowError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"candidate": candidate}, "")
}

func (app *Application) applyDetails(w http.ResponseWriter, r *http.Request) {
	sess := app.sessionFromCtx(r)
	if err := app.services.Workflow.ApplyDetails(r.Context(), sess); err != nil {
		app.handleWorkflowError(w, r, err)
		return
	}
	app.Http.Ok(w, r, nil, "Movie fields updated!")
}

func (app *Application) listPosters(w http.ResponseWriter, r *http.Request) {
	sess := app.sessionFromCtx(r)
	posters, err := app.services.Workflow.ListPosters(r.Context(), sess)
	if err != nil {
		app.handleWorkflowError(w, r, err)
		return
	}
	msg := ""
	if len(posters) == 0 {
		msg = "No posters found for this movie."
	}
	app.Http.Ok(w, r, envelop{"posters": posters}, msg)
}

func (app *Application) choosePoster(w http.ResponseWriter, r *http.Request) {
	sess := app.sessionFromCtx(r)
	var input choiceInput
	if !app.readValidated(w, r, &input) {
		return
	}
	posterURL, err := app.services.Workflow.ChoosePoster(r.Context(), sess, input.Index)
	if err != nil {
		app.handleWorkflowError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"poster_url": posterURL}, "Poster updated!")
}
