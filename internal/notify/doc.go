// Package notify turns board transitions into outbound events.
//
// Three events exist: leader_changed when the set of leaders differs from the
// previous successful poll, source_down when polling starts failing after a
// healthy period, and source_recovered when it succeeds again. Events are
// delivered to Slack, Teams or plain HTTP webhooks and, when configured,
// published as JSON on a NATS subject. Delivery failures are logged only.
package notify
