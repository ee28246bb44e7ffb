// Package main provides the entrypoint of boltzcli, a command-line client
// for querying a local boltzd instance's JSON-RPC "swap" namespace.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/djkazic/boltz-backend/cliutil"
	"github.com/djkazic/boltz-backend/types"
)

const (
	flagRPCAddress = "rpc-address"
	flagKind       = "kind"
)

func main() {
	if err := cliApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cliApp() *cli.App {
	rpcAddressFlag := &cli.StringFlag{
		Name:    flagRPCAddress,
		Value:   "http://127.0.0.1:9001",
		EnvVars: []string{"BOLTZCLI_RPC_ADDRESS"},
		Usage:   "boltzd's JSON-RPC URL",
	}

	return &cli.App{
		Name:    "boltzcli",
		Usage:   "Client for boltzd",
		Version: cliutil.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:      "status",
				Usage:     "Query a swap's current status",
				ArgsUsage: "<swap-id>",
				Action:    runStatus,
				Flags: []cli.Flag{
					rpcAddressFlag,
					&cli.StringFlag{
						Name:  flagKind,
						Value: "submarine",
						Usage: "submarine, reverseSubmarine or chain",
					},
				},
			},
		},
	}
}

func runStatus(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("boltzcli: status requires a swap id argument")
	}

	kind, err := parseKind(c.String(flagKind))
	if err != nil {
		return err
	}

	req := struct {
		ID   string         `json:"id"`
		Kind types.SwapKind `json:"kind"`
	}{ID: id, Kind: kind}

	resp, err := call(c.String(flagRPCAddress), "swap.GetStatus", req)
	if err != nil {
		return err
	}

	fmt.Println(string(resp))
	return nil
}

func parseKind(s string) (types.SwapKind, error) {
	switch s {
	case "submarine":
		return types.Submarine, nil
	case "reverseSubmarine":
		return types.ReverseSubmarine, nil
	case "chain":
		return types.Chain, nil
	default:
		return 0, fmt.Errorf("boltzcli: unknown kind %q", s)
	}
}

// call issues a single JSON-RPC 2.0 request, matching the gorilla/rpc json2
// codec registered on the server side.
func call(rpcAddress, method string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(struct {
		Version string        `json:"jsonrpc"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params"`
		ID      int           `json:"id"`
	}{Version: "2.0", Method: method, Params: []interface{}{params}, ID: 1})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(rpcAddress, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("boltzcli: request %s: %w", method, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("boltzcli: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("boltzcli: %s", rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}
