// Package common contains protocol constants shared by the inbound HTTP
// surface and the outbound ingest client.
package common

// Version is the protocol version this server speaks. Clients must send an
// exactly matching x-uploadthing-version on upload actions.
const Version = "1.3.0"

// BEAdapter identifies this SDK to the ingest service.
const BEAdapter = "go-http"

// Header names of the uploadthing wire protocol.
const (
	HeaderHook      = "uploadthing-hook"
	HeaderSignature = "x-uploadthing-signature"
	HeaderPackage   = "x-uploadthing-package"
	HeaderVersion   = "x-uploadthing-version"
	HeaderAPIKey    = "x-uploadthing-api-key"
	HeaderBEAdapter = "x-uploadthing-be-adapter"
	HeaderFEPackage = "x-uploadthing-fe-package"
)

// HookCallback is the HeaderHook value marking an inbound callback action.
const HookCallback = "callback"

// ActionUpload is the actionType query value for an upload action.
const ActionUpload = "upload"
