package validate

import (
	"net/url"
	"strings"

	"github.com/usestring/splunk-mcp/internal/spl"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// Parse checks raw without contacting Splunk and converts it into typed
// Options. Options is nil whenever errors are returned.
func Parse(raw types.RawOptions) (*types.Options, []types.ValidationError) {
	opts, errs, kvErrs := parse(raw)
	if errs = append(errs, kvErrs...); len(errs) > 0 {
		return nil, errs
	}
	return opts, nil
}

// parse is Parse with the missing KV store requirements reported apart in
// kvErrs, so that Validate can replace them with messages listing what the
// instance offers. opts is nil only when errs is not empty.
func parse(raw types.RawOptions) (opts *types.Options, errs, kvErrs []types.ValidationError) {
	if schemaErrs := checkRaw(raw); len(schemaErrs) > 0 {
		return nil, schemaErrs, nil
	}

	add := func(key, msg string) {
		errs = append(errs, types.ValidationError{Key: key, Message: msg})
	}

	opts = &types.Options{
		URL:                  strings.TrimSpace(raw.URL),
		APIToken:             raw.APIToken,
		Username:             strings.TrimSpace(raw.Username),
		Password:             raw.Password,
		SearchString:         strings.TrimSpace(raw.SearchString),
		SearchAppQueryString: strings.TrimSpace(raw.SearchAppQueryString),
		EarliestTimeBound:    strings.TrimSpace(raw.EarliestTimeBound),
		MaxResults:           raw.MaxResults,
		SummaryFields:        splitList(raw.SummaryFields),
		MaxSummaryTags:       raw.MaxSummaryTags,
		SearchType:           types.SearchMode(raw.SearchType),
		KvStoreSearchFields:  splitList(raw.KvStoreSearchStringFields),
		IndexDiscoveryMatch:  strings.TrimSpace(raw.IndexDiscoveryMatchString),
		UIHostname:           strings.TrimSuffix(strings.TrimSpace(raw.UIHostname), "/"),
	}
	if opts.MaxResults == 0 {
		opts.MaxResults = types.DefaultMaxResults
	}
	if opts.SearchType == "" {
		opts.SearchType = types.SearchModeStandard
	}

	// Connection.
	switch {
	case opts.URL == "":
		add(types.OptionURL, printer.Sprintf("You must provide a valid Splunk URL"))
	case strings.HasSuffix(opts.URL, "/"):
		add(types.OptionURL, printer.Sprintf(`The Splunk URL should not end with a forward slash ("/")`))
	case !validHTTPURL(opts.URL):
		add(types.OptionURL, printer.Sprintf("What is currently provided is not a valid URL. You must provide a valid Splunk URL."))
	}

	if opts.UIHostname != "" && !validHTTPURL(opts.UIHostname) {
		add(types.OptionUIHostname, printer.Sprintf("The Splunk UI hostname must be a valid URL such as https://splunk.example.com:8000"))
	}

	// Credentials.
	hasToken := opts.APIToken != ""
	hasUserPass := opts.Username != "" || opts.Password != ""
	opts.AuthMode = types.AuthMode(raw.AuthMode)
	if opts.AuthMode == "" {
		opts.AuthMode = types.AuthModeToken
		if !hasToken && hasUserPass {
			opts.AuthMode = types.AuthModeBasic
		}
	}

	switch opts.AuthMode {
	case types.AuthModeToken:
		if !hasToken {
			add(types.OptionAPIToken, printer.Sprintf("You must provide a valid Splunk Authentication Token"))
		}
		if hasUserPass {
			add(types.OptionAuthMode, printer.Sprintf("Token authentication does not use a username or password. Clear them or change the authentication mode."))
		}
	case types.AuthModeBasic, types.AuthModeSession:
		if opts.Username == "" {
			add(types.OptionUsername, printer.Sprintf("You must provide a Splunk username for %s authentication", opts.AuthMode))
		}
		if opts.Password == "" {
			add(types.OptionPassword, printer.Sprintf("You must provide a Splunk password for %s authentication", opts.AuthMode))
		}
		if hasToken {
			add(types.OptionAuthMode, printer.Sprintf("%s authentication does not use an API token. Clear it or change the authentication mode.", opts.AuthMode))
		}
	}

	// Search.
	switch opts.SearchType {
	case types.SearchModeStandard:
		if opts.SearchString == "" {
			add(types.OptionSearchString, printer.Sprintf("Must provide a valid Splunk Search String. Without a Splunk Search String, no results will ever be returned"))
		}
	case types.SearchModeMetaSearch, types.SearchModeIndexDiscovery:
		if opts.IndexDiscoveryMatch != "" && !strings.Contains(strings.ToUpper(opts.IndexDiscoveryMatch), spl.Placeholder) {
			add(types.OptionIndexDiscoveryMatchString, printer.Sprintf("The match string must contain %s", spl.Placeholder))
		}
	}

	collections, collErr := parseCollections(raw.KvStoreAppsAndCollections)
	if collErr != "" {
		add(types.OptionKvStoreAppsAndCollections, collErr)
	}
	opts.KvStoreCollections = collections

	if opts.SearchType == types.SearchModeKvStore && collErr == "" {
		required := printer.Sprintf("Required if you want to search the KV Store.")
		if len(opts.KvStoreCollections) == 0 {
			kvErrs = append(kvErrs, types.ValidationError{Key: types.OptionKvStoreAppsAndCollections, Message: required})
		}
		if len(opts.KvStoreSearchFields) == 0 {
			kvErrs = append(kvErrs, types.ValidationError{Key: types.OptionKvStoreSearchStringFields, Message: required})
		}
	}

	if len(errs) > 0 {
		return nil, errs, kvErrs
	}
	return opts, nil, kvErrs
}

func validHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// splitList splits a comma separated option, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseCollections parses "app:collection, app2:collection2". The returned
// message is empty when s is well formed.
func parseCollections(s string) ([]types.AppCollection, string) {
	items := splitList(s)
	if len(items) == 0 {
		return nil, ""
	}

	out := make([]types.AppCollection, 0, len(items))
	for _, item := range items {
		parts := strings.Split(item, ":")
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, printer.Sprintf(`All Apps require Collections and vice versa.  You might be missing ":" somewhere.`)
		}
		if strings.Contains(item, `"`) {
			return nil, printer.Sprintf("App and Collection names should not include quotes `\"`")
		}
		out = append(out, types.AppCollection{
			App:        strings.TrimSpace(parts[0]),
			Collection: strings.TrimSpace(parts[1]),
		})
	}
	return out, ""
}
