package main

import (
	"strings"
)

var opts struct {
	Cluster struct {
		Name           string `long:"name" description:"cluster name" env:"NAME" default:"dev"`
		Addrs          string `long:"addrs" description:"comma-separated list of member addresses" env:"ADDRS"`
		Username       string `long:"username" description:"username for authentication" env:"USERNAME"`
		Password       string `long:"password" description:"password for authentication" env:"PASSWORD"`
		ConnectTimeout int    `long:"connect-timeout" description:"cluster connect timeout (ms)" env:"CONNECT_TIMEOUT" default:"120000"`
		Reconnect      string `long:"reconnect" description:"reconnect mode" env:"RECONNECT" choice:"on" choice:"off" choice:"if-previously-connected" default:"on"`
		AsyncStart     bool   `long:"async-start" description:"do not wait for the cluster on start" env:"ASYNC_START"`
		Unisocket      bool   `long:"unisocket" description:"use a single connection instead of smart routing" env:"UNISOCKET"`
		PoolSize       int    `long:"pool-size" description:"connections per member" env:"POOL_SIZE" default:"1"`
	} `group:"cluster" namespace:"cluster" env-namespace:"CLUSTER"`

	Cloud struct {
		Token string `long:"token" description:"cloud discovery token, replaces the address list" env:"TOKEN"`
		URL   string `long:"url" description:"cloud discovery base url" env:"URL"`
	} `group:"cloud" namespace:"cloud" env-namespace:"CLOUD"`

	Heartbeat struct {
		Interval int `long:"interval" description:"heartbeat interval (ms)" env:"INTERVAL" default:"5000"`
		Timeout  int `long:"timeout" description:"heartbeat timeout (ms)" env:"TIMEOUT" default:"60000"`
	} `group:"heartbeat" namespace:"heartbeat" env-namespace:"HEARTBEAT"`

	Invocation struct {
		Timeout     int  `long:"timeout" description:"invocation timeout (ms)" env:"TIMEOUT" default:"120000"`
		Redo        bool `long:"redo" description:"resend non-retryable requests after a connection loss" env:"REDO"`
		MaxInFlight int  `long:"max-in-flight" description:"max concurrent invocations, 0 for unlimited" env:"MAX_IN_FLIGHT" default:"0"`
	} `group:"invocation" namespace:"invocation" env-namespace:"INVOCATION"`

	TLS struct {
		Enabled    bool   `long:"enabled" description:"connect over TLS" env:"ENABLED"`
		CAFile     string `long:"ca-file" description:"CA certificate file" env:"CA_FILE"`
		CertFile   string `long:"cert-file" description:"client certificate file" env:"CERT_FILE"`
		KeyFile    string `long:"key-file" description:"client key file" env:"KEY_FILE"`
		ServerName string `long:"server-name" description:"server name to verify" env:"SERVER_NAME"`
	} `group:"tls" namespace:"tls" env-namespace:"TLS"`

	RestAPI struct {
		Enabled  bool   `long:"enabled" description:"enable REST API" env:"ENABLED"`
		BindAddr string `long:"bind-addr" description:"address to bind REST API" env:"BIND_ADDR" default:":8000"`
	} `group:"api" namespace:"api" env-namespace:"API"`

	Verbose bool `long:"verbose" description:"verbose mode" env:"VERBOSE"`
}

func parseAddrs(addrs string) []string {
	sl := strings.Split(addrs, ",")
	res := make([]string, 0, len(sl))

	for _, addr := range sl {
		trimmed := strings.TrimSpace(addr)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}

	return res
}
