package main

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	jsonapibridge "github.com/opengovern/jsonapi-bridge"
	"github.com/opengovern/jsonapi-bridge/adapters"
	"github.com/opengovern/jsonapi-bridge/auth"
	"github.com/opengovern/jsonapi-bridge/metrics"
)

const envPrefix = "JSONAPICTL"

// Flag names double as viper keys, so every option can also come from the config
// file or from JSONAPICTL_<NAME> environment variables.
const (
	flagConfig          = "config"
	flagAPIURL          = "api-url"
	flagHeader          = "header"
	flagFilterMode      = "filter-mode"
	flagTotalKey        = "total-key"
	flagRelationships   = "relationships"
	flagTimeout         = "timeout"
	flagRequestIDHeader = "request-id-header"
	flagDebug           = "debug"
	flagMetrics         = "metrics"

	flagJWTKey     = "jwt-key"
	flagJWTIssuer  = "jwt-issuer"
	flagJWTSubject = "jwt-subject"

	flagOAuthTokenURL     = "oauth-token-url"
	flagOAuthClientID     = "oauth-client-id"
	flagOAuthClientSecret = "oauth-client-secret"
	flagOAuthScopes       = "oauth-scopes"
)

func registerGlobalFlags(fs *pflag.FlagSet) {
	fs.String(flagConfig, "", "config file (default ./jsonapictl.yaml)")
	fs.String(flagAPIURL, "", "base URL of the JSONAPI backend")
	fs.StringArray(flagHeader, nil, "extra request header as key=value, repeatable")
	fs.StringArray(flagFilterMode, nil, "filter rendering for a field as field=exact|contains|excludes, repeatable")
	fs.String(flagTotalKey, jsonapibridge.DefaultTotalKey, "meta.page key holding the collection total")
	fs.String(flagRelationships, string(jsonapibridge.RelationshipsCompat), "relationships policy: compat, keep or drop")
	fs.Duration(flagTimeout, 30*time.Second, "request timeout")
	fs.String(flagRequestIDHeader, "", "header to stamp with a random request id")
	fs.Bool(flagDebug, false, "log requests to stderr")
	fs.Bool(flagMetrics, false, "print request metrics to stderr after the command")

	fs.String(flagJWTKey, "", "HS256 key used to sign bearer tokens")
	fs.String(flagJWTIssuer, "jsonapictl", "issuer of signed bearer tokens")
	fs.String(flagJWTSubject, "", "subject of signed bearer tokens")

	fs.String(flagOAuthTokenURL, "", "OAuth2 token endpoint for the client credentials grant")
	fs.String(flagOAuthClientID, "", "OAuth2 client id")
	fs.String(flagOAuthClientSecret, "", "OAuth2 client secret")
	fs.StringSlice(flagOAuthScopes, nil, "OAuth2 scopes")
}

func loadConfig(v *viper.Viper, fs *pflag.FlagSet, log logrus.FieldLogger) error {
	if err := v.BindPFlags(fs); err != nil {
		return errors.Wrap(err, "bind flags")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString(flagConfig); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("jsonapictl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
		log.Debug("no config file found")
	}
	return nil
}

// settingsFromConfig collects headers from the "headers" config map first and the
// repeatable --header flag second. Filter modes come from the filter-mode list,
// whose entries are field=mode strings: viper folds map keys to lower case, and
// field names are case-sensitive on the wire.
func settingsFromConfig(v *viper.Viper) (*jsonapibridge.Settings, error) {
	headers := v.GetStringMapString("headers")
	for _, kv := range v.GetStringSlice(flagHeader) {
		k, val, err := splitPair(kv)
		if err != nil {
			return nil, errors.Wrap(err, "invalid header")
		}
		headers[k] = val
	}

	modes := map[string]jsonapibridge.FilterMode{}
	for _, kv := range v.GetStringSlice(flagFilterMode) {
		field, mode, err := splitPair(kv)
		if err != nil {
			return nil, errors.Wrap(err, "invalid filter mode")
		}
		modes[field] = jsonapibridge.FilterMode(mode)
	}

	return &jsonapibridge.Settings{
		Headers:       headers,
		Total:         v.GetString(flagTotalKey),
		FilterModes:   modes,
		Relationships: jsonapibridge.RelationshipPolicy(v.GetString(flagRelationships)),
	}, nil
}

func splitPair(kv string) (string, string, error) {
	k, val, ok := strings.Cut(kv, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", errors.Errorf("%q, want key=value", kv)
	}
	return k, strings.TrimSpace(val), nil
}

func newTransport(ctx context.Context, v *viper.Viper) (*adapters.RestyAdapter, error) {
	ts, err := tokenSource(ctx, v)
	if err != nil {
		return nil, err
	}

	var adapter *adapters.RestyAdapter
	if ts != nil {
		adapter = adapters.NewOAuth2Adapter(ctx, ts)
	} else {
		adapter = adapters.NewRestyAdapter(resty.New())
	}
	adapter.Client.SetTimeout(v.GetDuration(flagTimeout))
	adapter.RequestIDHeader = v.GetString(flagRequestIDHeader)
	return adapter, nil
}

// tokenSource picks the client credentials grant, then a signed JWT, then nothing.
func tokenSource(ctx context.Context, v *viper.Viper) (oauth2.TokenSource, error) {
	if tokenURL := v.GetString(flagOAuthTokenURL); tokenURL != "" {
		return auth.NewClientCredentialsTokenSource(ctx, auth.ClientCredentialsConfig{
			ClientID:     v.GetString(flagOAuthClientID),
			ClientSecret: v.GetString(flagOAuthClientSecret),
			TokenURL:     tokenURL,
			Scopes:       v.GetStringSlice(flagOAuthScopes),
		})
	}
	if key := v.GetString(flagJWTKey); key != "" {
		return auth.NewJWTTokenSource(auth.JWTConfig{
			SigningKey: []byte(key),
			Issuer:     v.GetString(flagJWTIssuer),
			Subject:    v.GetString(flagJWTSubject),
		})
	}
	return nil, nil
}

// newBridge wires the configured transport into a Bridge. The returned registry is
// non-nil only when --metrics is set.
func newBridge(ctx context.Context, v *viper.Viper, log logrus.FieldLogger) (*jsonapibridge.Bridge, *prometheus.Registry, error) {
	apiURL := v.GetString(flagAPIURL)
	if apiURL == "" {
		return nil, nil, errors.Errorf("--%s is required", flagAPIURL)
	}
	settings, err := settingsFromConfig(v)
	if err != nil {
		return nil, nil, err
	}
	adapter, err := newTransport(ctx, v)
	if err != nil {
		return nil, nil, err
	}

	var (
		transport jsonapibridge.Transport = adapter
		reg       *prometheus.Registry
	)
	if v.GetBool(flagMetrics) {
		reg = prometheus.NewRegistry()
		if transport, err = metrics.NewTransport(adapter, reg); err != nil {
			return nil, nil, err
		}
	}

	bridge, err := jsonapibridge.NewBridge(apiURL, transport, settings)
	if err != nil {
		return nil, nil, err
	}
	bridge.SetLogger(log)
	bridge.SetDebug(v.GetBool(flagDebug))
	return bridge, reg, nil
}
