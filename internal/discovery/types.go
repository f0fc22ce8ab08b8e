// Package discovery implements the OPC-UA Discovery subsystem: the registry
// and services (FindServers, GetEndpoints, RegisterServer/RegisterServer2)
// by which OPC-UA applications locate each other, plus the client side used
// to self-register against a remote Local Discovery Server.
package discovery

import "time"

// StatusCode mirrors an OPC-UA response status. Kept as a named string
// rather than an integer enum so the historical spelling of
// BadSempahoreFileMissing stays a visible, grep-able constant.
type StatusCode string

const (
	Good StatusCode = "Good"

	BadServerNameMissing    StatusCode = "BadServerNameMissing"
	BadDiscoveryUrlMissing  StatusCode = "BadDiscoveryUrlMissing"
	BadSempahoreFileMissing StatusCode = "BadSempahoreFileMissing" // spelling preserved for wire compatibility
	BadNotFound             StatusCode = "BadNotFound"
	BadNotSupported         StatusCode = "BadNotSupported"
	BadInvalidArgument      StatusCode = "BadInvalidArgument"
	BadInternalError        StatusCode = "BadInternalError"
)

// ApplicationType is one of the four roles an OPC-UA application may declare.
type ApplicationType string

const (
	AppTypeServer          ApplicationType = "Server"
	AppTypeClient          ApplicationType = "Client"
	AppTypeClientAndServer ApplicationType = "ClientAndServer"
	AppTypeDiscoveryServer ApplicationType = "DiscoveryServer"
)

// LocalizedText pairs a locale with translated text, e.g. ("en", "Acme PLC").
type LocalizedText struct {
	Locale string
	Text   string
}

// RegisteredServer is the registry's on-disk-equivalent record: what a peer
// server submitted the last time it (re-)registered.
type RegisteredServer struct {
	ServerURI         string
	ProductURI        string
	GatewayServerURI  string
	ServerNames       []LocalizedText
	ServerType        ApplicationType
	DiscoveryURLs     []string
	SemaphoreFilePath string
	IsOnline          bool
	LastSeen          time.Time
}

// Clone returns a deep copy so callers never share slice backing arrays with
// the registry's stored value.
func (r RegisteredServer) Clone() RegisteredServer {
	out := r
	out.ServerNames = append([]LocalizedText(nil), r.ServerNames...)
	out.DiscoveryURLs = append([]string(nil), r.DiscoveryURLs...)
	return out
}

// ApplicationDescription is the composed, response-facing view of either the
// discovery server itself or a registered peer.
type ApplicationDescription struct {
	ApplicationURI      string
	ProductURI          string
	ApplicationName     LocalizedText
	ApplicationType     ApplicationType
	GatewayServerURI    string
	DiscoveryProfileURI string
	DiscoveryURLs       []string
}

// EndpointDescription advertises one way a client may connect.
type EndpointDescription struct {
	EndpointURL          string
	Server               ApplicationDescription
	SecurityPolicyURI    string
	SecurityMode         string
	TransportProfileURI  string
	SecurityLevel        byte
}

// MdnsDiscoveryConfiguration is the one ExtensionObject payload this
// subsystem interprets out of RegisterServer2's discoveryConfiguration list.
type MdnsDiscoveryConfiguration struct {
	MdnsServerName string
	ServerCapabilities []string
}

// FindServersRequest/Response.

type FindServersRequest struct {
	ServerURIs []string
	LocaleIDs  []string
}

type FindServersResponse struct {
	ServiceResult StatusCode
	Servers       []ApplicationDescription
}

// GetEndpointsRequest/Response.

type GetEndpointsRequest struct {
	EndpointURL string
	ProfileURIs []string
}

type GetEndpointsResponse struct {
	ServiceResult StatusCode
	Endpoints     []EndpointDescription
}

// RegisterServerRequest/Response (RegisterServer has no DiscoveryConfiguration).

type RegisterServerRequest struct {
	Server                RegisteredServer
	DiscoveryConfiguration []MdnsDiscoveryConfiguration // only populated for RegisterServer2
}

type RegisterServerResponse struct {
	ServiceResult StatusCode
}

type RegisterServer2Response struct {
	ServiceResult      StatusCode
	ConfigurationResults []StatusCode
	DiagnosticInfos      []string
}

// NetworkLayer is one transport endpoint this server instance listens on,
// e.g. "opc.tcp://host:4840". GetEndpoints fans out one endpoint clone per
// network layer when the caller doesn't pin an EndpointURL.
type NetworkLayer struct {
	DiscoveryURL string
}
