// Package policy holds the ticket access and workflow rules shared by the
// HTTP service and the client SDK: role resolution, dashboard routing,
// ticket visibility, status transitions and agent assignment.
//
// Every function here is pure. Callers own persistence and transport.
package policy
