// Package wire frames protocol messages.
//
// Every message starts with a 3-byte header:
//
//	[client_id:u8][time:u8][kind:u8]
//
// PING and SYNC carry only the header. LOCK carries one record:
//
//	[origin:u8][entity:u16][lock:u8]
//
// PARAMETERUPDATE carries one or more records back to back:
//
//	[origin:u8][entity:u16][param:u16][value_kind:u8][len:u8][payload]
//
// where len = 7 + len(payload). Multi-byte fields are little-endian.
// There are no sequence numbers; receivers apply records in buffer order
// and the last write wins.
package wire
