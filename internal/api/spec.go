package api

import "net/http"

type specOperation struct {
	Summary string `json:"summary"`
}

// routeCatalog is the machine-readable surface served by /api/spec.
var routeCatalog = map[string]map[string]specOperation{
	"/api/health":                    {"get": {Summary: "Liveness check"}},
	"/api/spec":                      {"get": {Summary: "This route catalog"}},
	"/api/register":                  {"post": {Summary: "Register a new user"}},
	"/api/login":                     {"post": {Summary: "Issue a session token"}},
	"/api/logout":                    {"post": {Summary: "Revoke the current token"}},
	"/api/token/refresh":             {"post": {Summary: "Issue a fresh token"}},
	"/api/verify_token":              {"get": {Summary: "Validate the current token"}},
	"/api/bookshelves": {
		"get":  {Summary: "List own bookshelves"},
		"post": {Summary: "Create a bookshelf"},
	},
	"/api/bookshelves/{id}": {
		"get":    {Summary: "Get an owned bookshelf with its books"},
		"put":    {Summary: "Update an owned bookshelf"},
		"delete": {Summary: "Delete an owned bookshelf"},
	},
	"/api/bookshelves/{id}/books":    {"post": {Summary: "Add a book to an owned bookshelf"}},
	"/api/books/{id}":                {"delete": {Summary: "Remove a book from one's shelves"}},
	"/api/public/bookshelves":        {"get": {Summary: "Browse public bookshelves"}},
	"/api/public/bookshelves/{id}":   {"get": {Summary: "View a public bookshelf"}},
	"/api/users/{id}/bookshelves":    {"get": {Summary: "View a user's shelves per visibility rule"}},
	"/api/friends":                   {"get": {Summary: "List friends"}},
	"/api/friends/requests":          {"get": {Summary: "List incoming friend requests"}},
	"/api/friends/outgoing":          {"get": {Summary: "List outgoing friend requests"}},
	"/api/friends/{id}": {
		"post":   {Summary: "Send or accept a friend request"},
		"delete": {Summary: "Cancel, decline, or remove"},
	},
	"/api/communities": {
		"get":  {Summary: "List communities"},
		"post": {Summary: "Create a community"},
	},
	"/api/communities/search":        {"get": {Summary: "Search communities by name"}},
	"/api/communities/mine":          {"get": {Summary: "List joined communities"}},
	"/api/communities/{id}": {
		"get":    {Summary: "Get a community"},
		"put":    {Summary: "Update a community (owner only)"},
		"delete": {Summary: "Delete a community (owner only)"},
	},
	"/api/communities/{id}/join":     {"post": {Summary: "Join a community"}},
	"/api/communities/{id}/leave":    {"delete": {Summary: "Leave a community"}},
	"/api/communities/{id}/members":  {"get": {Summary: "List community members"}},
	"/api/upload":                    {"post": {Summary: "Analyze a bookshelf photo and save results"}},
	"/api/uploads":                   {"get": {Summary: "List past upload analyses"}},
}

// Spec serves an OpenAPI-shaped catalog of the HTTP surface.
func Spec(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]string{
			"title":   "Shelfscape API",
			"version": "1.0.0",
		},
		"paths": routeCatalog,
	})
}

// Health serves the liveness check.
func Health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
