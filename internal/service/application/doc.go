// Package application implements the job application request translator.
//
// The service turns validated payloads into document store operations and
// store results into the public form. It depends on the Store interface
// defined in this package and should never import from api/.
//
// Store implementations live in repository/dynamo/, repository/postgres/,
// repository/redisstore/ and repository/memory/.
package application
