package types

// SearchMode selects the query strategy used for a lookup.
type SearchMode string

const (
	SearchModeStandard       SearchMode = "standard"
	SearchModeMetaSearch     SearchMode = "metaSearch"
	SearchModeIndexDiscovery SearchMode = "indexDiscovery"
	SearchModeKvStore        SearchMode = "kvStore"
)

// SearchModes lists every accepted SearchMode in display order.
var SearchModes = []SearchMode{
	SearchModeStandard,
	SearchModeMetaSearch,
	SearchModeIndexDiscovery,
	SearchModeKvStore,
}

// AuthMode selects how requests to Splunk are authenticated.
type AuthMode string

const (
	// AuthModeToken sends "Authorization: Bearer <apiToken>".
	AuthModeToken AuthMode = "token"
	// AuthModeBasic sends HTTP basic auth on every call (Splunk Cloud).
	AuthModeBasic AuthMode = "basic"
	// AuthModeSession exchanges username/password for a cached session key.
	AuthModeSession AuthMode = "session"
)

// AuthModes lists every accepted AuthMode.
var AuthModes = []AuthMode{AuthModeToken, AuthModeBasic, AuthModeSession}

// Option keys. ValidationError.Key is always one of these.
const (
	OptionURL                       = "url"
	OptionAuthMode                  = "authMode"
	OptionAPIToken                  = "apiToken"
	OptionUsername                  = "username"
	OptionPassword                  = "password"
	OptionSearchString              = "searchString"
	OptionSearchAppQueryString      = "searchAppQueryString"
	OptionEarliestTimeBound         = "earliestTimeBound"
	OptionMaxResults                = "maxResults"
	OptionSummaryFields             = "summaryFields"
	OptionMaxSummaryTags            = "maxSummaryTags"
	OptionSearchType                = "searchType"
	OptionKvStoreAppsAndCollections = "kvStoreAppsAndCollections"
	OptionKvStoreSearchStringFields = "kvStoreSearchStringFields"
	OptionIndexDiscoveryMatchString = "indexDiscoveryMatchString"
	OptionUIHostname                = "uiHostname"
)

// Default option values.
const (
	DefaultMaxResults          = 10
	DefaultMetaSearchMatch     = `index=* TERM("{{ENTITY}}")`
	DefaultIndexDiscoveryMatch = `index=* "{{ENTITY}}"`
)

// RawOptions is the user-facing option document, as submitted by the host
// (JSON) or read from an options file (YAML). It is untrusted until it has
// been through the validator, which turns it into Options.
type RawOptions struct {
	URL                       string `json:"url,omitempty" yaml:"url" jsonschema_description:"Splunk REST API base URL, including scheme and management port"`
	AuthMode                  string `json:"authMode,omitempty" yaml:"authMode" jsonschema_description:"token, basic or session"`
	APIToken                  string `json:"apiToken,omitempty" yaml:"apiToken" jsonschema_description:"Splunk authentication token"`
	Username                  string `json:"username,omitempty" yaml:"username"`
	Password                  string `json:"password,omitempty" yaml:"password"`
	SearchString              string `json:"searchString,omitempty" yaml:"searchString" jsonschema_description:"SPL template containing {{ENTITY}}"`
	SearchAppQueryString      string `json:"searchAppQueryString,omitempty" yaml:"searchAppQueryString" jsonschema_description:"SPL template used for the open-in-Splunk link"`
	EarliestTimeBound         string `json:"earliestTimeBound,omitempty" yaml:"earliestTimeBound" jsonschema_description:"Splunk earliest_time, for example -30d"`
	MaxResults                int    `json:"maxResults,omitempty" yaml:"maxResults" jsonschema_description:"Result cap appended to direct searches"`
	SummaryFields             string `json:"summaryFields,omitempty" yaml:"summaryFields" jsonschema_description:"Comma separated result fields shown as summary tags"`
	MaxSummaryTags            int    `json:"maxSummaryTags,omitempty" yaml:"maxSummaryTags" jsonschema_description:"Maximum summary tags; 0 shows all"`
	SearchType                string `json:"searchType,omitempty" yaml:"searchType" jsonschema_description:"standard, metaSearch, indexDiscovery or kvStore"`
	KvStoreAppsAndCollections string `json:"kvStoreAppsAndCollections,omitempty" yaml:"kvStoreAppsAndCollections" jsonschema_description:"Comma separated app:collection pairs"`
	KvStoreSearchStringFields string `json:"kvStoreSearchStringFields,omitempty" yaml:"kvStoreSearchStringFields" jsonschema_description:"Comma separated KV store fields compared with each entity"`
	IndexDiscoveryMatchString string `json:"indexDiscoveryMatchString,omitempty" yaml:"indexDiscoveryMatchString" jsonschema_description:"Match clause for metaSearch and indexDiscovery modes"`
	UIHostname                string `json:"uiHostname,omitempty" yaml:"uiHostname" jsonschema_description:"Splunk web UI base URL used for links"`
}

// Merge returns a copy of o with every non-zero field of override applied.
// Credentials are one unit: when override sets any of authMode, apiToken,
// username or password, all four come from override.
func (o RawOptions) Merge(override RawOptions) RawOptions {
	out := o
	setString(&out.URL, override.URL)
	if override.hasCredentials() {
		out.AuthMode = override.AuthMode
		out.APIToken = override.APIToken
		out.Username = override.Username
		out.Password = override.Password
	}
	setString(&out.SearchString, override.SearchString)
	setString(&out.SearchAppQueryString, override.SearchAppQueryString)
	setString(&out.EarliestTimeBound, override.EarliestTimeBound)
	setString(&out.SummaryFields, override.SummaryFields)
	setString(&out.SearchType, override.SearchType)
	setString(&out.KvStoreAppsAndCollections, override.KvStoreAppsAndCollections)
	setString(&out.KvStoreSearchStringFields, override.KvStoreSearchStringFields)
	setString(&out.IndexDiscoveryMatchString, override.IndexDiscoveryMatchString)
	setString(&out.UIHostname, override.UIHostname)
	if override.MaxResults != 0 {
		out.MaxResults = override.MaxResults
	}
	if override.MaxSummaryTags != 0 {
		out.MaxSummaryTags = override.MaxSummaryTags
	}
	return out
}

func (o RawOptions) hasCredentials() bool {
	return o.AuthMode != "" || o.APIToken != "" || o.Username != "" || o.Password != ""
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// AppCollection names one KV store collection inside an app.
type AppCollection struct {
	App        string `json:"app"`
	Collection string `json:"collection"`
}

// String renders the pair the way it is written in options ("app:collection").
func (a AppCollection) String() string {
	return a.App + ":" + a.Collection
}

// Options is the validated, typed search configuration. It is built once per
// lookup from RawOptions and is read-only afterwards.
type Options struct {
	URL      string
	AuthMode AuthMode
	APIToken string
	Username string
	Password string

	SearchString         string
	SearchAppQueryString string
	EarliestTimeBound    string
	MaxResults           int

	SummaryFields  []string
	MaxSummaryTags int

	SearchType          SearchMode
	KvStoreCollections  []AppCollection
	KvStoreSearchFields []string
	IndexDiscoveryMatch string

	UIHostname string
}
