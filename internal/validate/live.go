package validate

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/usestring/splunk-mcp/pkg/client"
	"github.com/usestring/splunk-mcp/pkg/types"
)

// credentialKey is the option blamed for rejected credentials.
func credentialKey(mode types.AuthMode) string {
	if mode == types.AuthModeToken {
		return types.OptionAPIToken
	}
	return types.OptionPassword
}

// Classify turns a failed live lookup into errors on the options most likely
// responsible. It never returns an empty list for a non-nil err.
func Classify(err error, opts *types.Options) []types.ValidationError {
	if err == nil {
		return nil
	}
	one := func(key, msg string) []types.ValidationError {
		return []types.ValidationError{{Key: key, Message: msg}}
	}

	if msg, ok := networkMessage(err); ok {
		return one(types.OptionURL, msg)
	}

	var pe *client.ParseError
	if errors.As(err, &pe) {
		msg := printer.Sprintf("Splunk answered with something other than JSON. Check the URL and any proxy in front of Splunk.")
		if pe.Hint != "" {
			msg = printer.Sprintf("Splunk answered with the page %q instead of JSON. Check the URL and any proxy in front of Splunk.", pe.Hint)
		}
		return one(types.OptionURL, msg)
	}

	var ae *client.AuthError
	if errors.As(err, &ae) {
		msg := printer.Sprintf("Authentication Failed when tried with Splunk.")
		if msgs := client.ErrorMessages([]byte(ae.Body)); len(msgs) > 0 {
			msg = printer.Sprintf("Authentication Failed when tried with Splunk: %s", strings.Join(msgs, " "))
		}
		return one(credentialKey(opts.AuthMode), msg)
	}

	var te *client.TransportError
	if errors.As(err, &te) {
		switch te.StatusCode {
		case http.StatusBadRequest:
			msg := printer.Sprintf("Search String Failed when tried with Splunk")
			if msgs := te.Messages(); len(msgs) > 0 {
				msg = printer.Sprintf("Search String Failed when tried with Splunk: %s", msgs[0])
			}
			return one(searchKey(opts), msg)
		case http.StatusUnauthorized:
			return one(credentialKey(opts.AuthMode), printer.Sprintf("Authentication Failed when tried with Splunk."))
		case http.StatusForbidden:
			return one(credentialKey(opts.AuthMode), printer.Sprintf("Authentication Failed when tried with Splunk: Insufficient Permission."))
		case http.StatusInternalServerError:
			return one(types.OptionAuthMode, printer.Sprintf("Internal Splunk Error.  Make a change and try again"))
		case 0:
		default:
			return one(types.OptionURL, printer.Sprintf("Splunk answered with unexpected status %d.", te.StatusCode))
		}
	}

	return one(types.OptionURL, printer.Sprintf("Server could not be reached: %v", err))
}

// searchKey is the option holding the query Splunk rejected.
func searchKey(opts *types.Options) string {
	switch opts.SearchType {
	case types.SearchModeMetaSearch, types.SearchModeIndexDiscovery:
		return types.OptionIndexDiscoveryMatchString
	case types.SearchModeKvStore:
		return types.OptionKvStoreSearchStringFields
	default:
		return types.OptionSearchString
	}
}

func networkMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, syscall.ECONNRESET):
		return printer.Sprintf("ECONNRESET - Server could not be reached."), true
	case errors.Is(err, syscall.ECONNREFUSED):
		return printer.Sprintf("ECONNREFUSED - Server could not be reached."), true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return printer.Sprintf("Host %s could not be resolved - Server could not be reached.", dnsErr.Name), true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return printer.Sprintf("Request timed out - Server could not be reached."), true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return printer.Sprintf("%s - Server could not be reached.", opErr.Err), true
	}
	return "", false
}
