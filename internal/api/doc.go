// Package api is the HTTP adapter for the task tracker. Handlers decode and
// validate requests, call the user and task services with the actor that
// the auth middleware placed on the context, and translate service errors
// into status codes and client-safe messages. The notification handler
// streams a user's events over a websocket.
package api
