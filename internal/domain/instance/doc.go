// Package instance enforces the single live application instance.
//
// The Manager is the only owner of the active instance: it is looked up by
// identity here, never by inspecting the window. Mount always removes the
// current instance before creating the next one, under one mutex.
package instance
