// Package web serves the module application to browsers.
//
// A page request renders every module's markup with namespaced ids. The
// page then opens a websocket whose hello frame starts one live session;
// input frames feed that session and rendered outputs flow back as output
// frames until the socket closes.
package web
