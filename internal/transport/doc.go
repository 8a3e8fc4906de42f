// Package transport abstracts the four sockets of a sync session.
//
//	distribution  REP  bound locally, answers bulk scene-data requests
//	sync          SUB  connected, receives state from the server
//	update        PUB  connected, publishes local changes
//	command       REQ  connected, ping/pong for latency estimation
//
// ZMQ implements them with go-zeromq. Memory implements them in process.
package transport
