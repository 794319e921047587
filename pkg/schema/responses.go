// Package schema defines the wire-response shapes returned by the
// Snowflake REST surface and picks the right one out of a response body
// whose variant is not tagged on the wire.
package schema

// BaseRestResponse wraps every REST response: code/message are present on
// failure, data carries the variant-specific payload.
type BaseRestResponse[D any] struct {
	Code    *string `json:"code"`
	Message *string `json:"message"`
	Success bool    `json:"success"`
	Data    D       `json:"data"`
}

type NameValueParameter struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// --- auth responses ---

type LoginResponseData struct {
	SessionID               int64                `json:"sessionId"`
	Token                   string               `json:"token"`
	MasterToken             string               `json:"masterToken"`
	ServerVersion           string               `json:"serverVersion"`
	Parameters              []NameValueParameter `json:"parameters"`
	SessionInfo             SessionInfo          `json:"sessionInfo"`
	MasterValidityInSeconds int64                `json:"masterValidityInSeconds"`
	ValidityInSeconds       int64                `json:"validityInSeconds"`
}

type SessionInfo struct {
	DatabaseName  *string `json:"databaseName"`
	SchemaName    *string `json:"schemaName"`
	WarehouseName *string `json:"warehouseName"`
	RoleName      string  `json:"roleName"`
}

type RenewSessionResponseData struct {
	SessionToken        string `json:"sessionToken"`
	ValidityInSecondsST int64  `json:"validityInSecondsST"`
	MasterToken         string `json:"masterToken"`
	ValidityInSecondsMT int64  `json:"validityInSecondsMT"`
	SessionID           int64  `json:"sessionId"`
}

type AuthenticatorResponseData struct {
	TokenURL string `json:"tokenUrl"`
	SSOURL   string `json:"ssoUrl"`
	ProofKey string `json:"proofKey"`
}

type AuthErrorResponseData struct {
	AuthnMethod string `json:"authnMethod"`
}

type LoginResponse = BaseRestResponse[LoginResponseData]
type RenewSessionResponse = BaseRestResponse[RenewSessionResponseData]
type AuthenticatorResponse = BaseRestResponse[AuthenticatorResponseData]
type AuthErrorResponse = BaseRestResponse[AuthErrorResponseData]
type CloseSessionResponse = BaseRestResponse[*struct{}]

// --- exec responses ---

type ExecErrorResponseData struct {
	Age           int64  `json:"age"`
	ErrorCode     string `json:"errorCode"`
	InternalError bool   `json:"internalError"`
	Line          *int64 `json:"line"`
	Pos           *int64 `json:"pos"`
	QueryID       string `json:"queryId"`
	SQLState      string `json:"sqlState"`
}

type ExecErrorResponse = BaseRestResponse[ExecErrorResponseData]

type SnowflakeType string

const (
	TypeFixed        SnowflakeType = "fixed"
	TypeReal         SnowflakeType = "real"
	TypeText         SnowflakeType = "text"
	TypeDate         SnowflakeType = "date"
	TypeVariant      SnowflakeType = "variant"
	TypeTimestampLTZ SnowflakeType = "timestamp_ltz"
	TypeTimestampNTZ SnowflakeType = "timestamp_ntz"
	TypeTimestampTZ  SnowflakeType = "timestamp_tz"
	TypeObject       SnowflakeType = "object"
	TypeBinary       SnowflakeType = "binary"
	TypeTime         SnowflakeType = "time"
	TypeBoolean      SnowflakeType = "boolean"
	TypeArray        SnowflakeType = "array"
)

type ExecResponseRowType struct {
	Name       string        `json:"name"`
	ByteLength *int64        `json:"byteLength"`
	Length     *int64        `json:"length"`
	Type       SnowflakeType `json:"type"`
	Scale      *int64        `json:"scale"`
	Precision  *int64        `json:"precision"`
	Nullable   bool          `json:"nullable"`
}

type ExecResponseChunk struct {
	URL              string `json:"url"`
	RowCount         int32  `json:"rowCount"`
	UncompressedSize int64  `json:"uncompressedSize"`
}

type QueryExecResponseData struct {
	Parameters         []NameValueParameter  `json:"parameters"`
	RowType            []ExecResponseRowType `json:"rowtype"`
	RowSet             any                   `json:"rowset"`
	RowSetBase64       *string               `json:"rowsetBase64"`
	Total              int64                 `json:"total"`
	Returned           int64                 `json:"returned"`
	QueryID            string                `json:"queryId"`
	FinalDatabaseName  *string               `json:"finalDatabaseName"`
	FinalWarehouseName *string               `json:"finalWarehouseName"`
	FinalRoleName      string                `json:"finalRoleName"`
	StatementTypeID    int64                 `json:"statementTypeId"`
	Version            int64                 `json:"version"`
	Chunks             []ExecResponseChunk   `json:"chunks"`
	Qrmk               *string               `json:"qrmk"`
	ChunkHeaders       map[string]string     `json:"chunkHeaders"`
}

type QueryExecResponse = BaseRestResponse[QueryExecResponseData]

type AsyncQueryResponseData struct {
	QueryID              string  `json:"queryId"`
	GetResultURL         string  `json:"getResultUrl"`
	QueryAbortsAfterSecs int64   `json:"queryAbortsAfterSecs"`
	ProgressDesc         *string `json:"progressDesc"`
}

type AsyncQueryResponse = BaseRestResponse[AsyncQueryResponseData]

type MultiStatementQueryResponseData struct {
	QueryID     string `json:"queryId"`
	ResultIDs   string `json:"resultIds"`
	ResultTypes string `json:"resultTypes"`
}

type MultiStatementQueryResponse = BaseRestResponse[MultiStatementQueryResponseData]

// --- staged-file transfer responses ---

type CommandType string

const (
	CommandUpload   CommandType = "UPLOAD"
	CommandDownload CommandType = "DOWNLOAD"
)

type PutGetResponseData struct {
	Command            CommandType          `json:"command"`
	LocalLocation      *string              `json:"localLocation"`
	SrcLocations       []string             `json:"src_locations"`
	Parallel           int32                `json:"parallel"`
	Threshold          int64                `json:"threshold"`
	AutoCompress       bool                 `json:"autoCompress"`
	Overwrite          bool                 `json:"overwrite"`
	SourceCompression  string               `json:"sourceCompression"`
	StageInfo          PutGetStageInfo      `json:"stageInfo"`
	EncryptionMaterial EncryptionMaterial   `json:"encryptionMaterial"`
	PresignedURLs      []string             `json:"presignedUrls"`
	Parameters         []NameValueParameter `json:"parameters"`
	StatementTypeID    *int64               `json:"statementTypeId"`
}

type PutGetResponse = BaseRestResponse[PutGetResponseData]

// PutGetStageInfo is the decoded form of the untagged Aws/Azure/Gcs union;
// exactly one of the three pointers is non-nil.
type PutGetStageInfo struct {
	Aws   *AwsPutGetStageInfo
	Azure *AzurePutGetStageInfo
	Gcs   *GcsPutGetStageInfo
}

type AwsPutGetStageInfo struct {
	LocationType string         `json:"locationType"`
	Location     string         `json:"location"`
	Region       string         `json:"region"`
	Creds        AwsCredentials `json:"creds"`
	EndPoint     *string        `json:"endPoint"`
}

type AwsCredentials struct {
	AwsKeyID     string `json:"AWS_KEY_ID"`
	AwsSecretKey string `json:"AWS_SECRET_KEY"`
	AwsToken     string `json:"AWS_TOKEN"`
	AwsID        string `json:"AWS_ID"`
	AwsKey       string `json:"AWS_KEY"`
}

type AzurePutGetStageInfo struct {
	LocationType   string           `json:"locationType"`
	Location       string           `json:"location"`
	StorageAccount string           `json:"storageAccount"`
	Creds          AzureCredentials `json:"creds"`
}

type AzureCredentials struct {
	AzureSasToken string `json:"AZURE_SAS_TOKEN"`
}

type GcsPutGetStageInfo struct {
	LocationType   string         `json:"locationType"`
	Location       string         `json:"location"`
	StorageAccount string         `json:"storageAccount"`
	Creds          GcsCredentials `json:"creds"`
	PresignedURL   string         `json:"presignedUrl"`
}

type GcsCredentials struct {
	GcsAccessToken string `json:"GCS_ACCESS_TOKEN"`
}

// EncryptionMaterial normalizes the untagged single-object-or-array shape
// the server sends (one entry for a single-file PUT, an array for
// multi-file) into a slice; a single object decodes to a one-element slice.
type EncryptionMaterial struct {
	Entries []PutGetEncryptionMaterial
}

type PutGetEncryptionMaterial struct {
	QueryStageMasterKey string `json:"queryStageMasterKey"`
	QueryID             string `json:"queryId"`
	SmkID               int64  `json:"smkId"`
}
