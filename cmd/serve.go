// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"net/http"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/querygateway/gateway/cmd/flags"
	"github.com/querygateway/gateway/pkg/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [port]",
		Short: "Start the gateway's HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			port := ":8080"
			if len(args) > 0 {
				port = fmt.Sprintf(":%s", args[0])
			}

			pl, reg, err := buildPipeline(cmd.Context())
			if err != nil {
				return err
			}

			srv := &http.Server{Addr: port, Handler: server.New(pl, reg)}
			pterm.Info.Println(fmt.Sprintf("gateway listening on %s", port))
			return srv.ListenAndServe()
		},
	}
	flags.GatewayConfigFlags(cmd)
	return cmd
}
