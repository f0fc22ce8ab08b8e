package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tributary-ai-services/opcua-discovery/internal/discovery"
	"github.com/tributary-ai-services/opcua-discovery/internal/logger"
)

const clientCallTimeout = 10 * time.Second

func newClientCommand() *cobra.Command {
	client := &cobra.Command{
		Use:   "client",
		Short: "Query or register against a remote discovery server",
	}

	client.AddCommand(newFindServersCommand())
	client.AddCommand(newFindServersOnNetworkCommand())
	client.AddCommand(newGetEndpointsCommand())
	client.AddCommand(newRegisterCommand())

	return client
}

func newFindServersCommand() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "find-servers",
		Short: "Call FindServers against a remote discovery server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("info")
			c := discovery.NewClient(log)

			ctx, cancel := context.WithTimeout(context.Background(), clientCallTimeout)
			defer cancel()

			resp, err := c.FindServers(ctx, endpoint, discovery.FindServersRequest{})
			if err != nil {
				return fmt.Errorf("find-servers: %w", err)
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "discovery server base URL (required)")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}

func newFindServersOnNetworkCommand() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "find-servers-on-network",
		Short: "Call FindServersOnNetwork against a remote discovery server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("info")
			c := discovery.NewClient(log)

			ctx, cancel := context.WithTimeout(context.Background(), clientCallTimeout)
			defer cancel()

			resp, err := c.FindServersOnNetwork(ctx, endpoint)
			if err != nil {
				return fmt.Errorf("find-servers-on-network: %w", err)
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "discovery server base URL (required)")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}

func newGetEndpointsCommand() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "get-endpoints",
		Short: "Call GetEndpoints against a remote discovery server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("info")
			c := discovery.NewClient(log)

			ctx, cancel := context.WithTimeout(context.Background(), clientCallTimeout)
			defer cancel()

			resp, err := c.GetEndpoints(ctx, endpoint, discovery.GetEndpointsRequest{EndpointURL: endpoint})
			if err != nil {
				return fmt.Errorf("get-endpoints: %w", err)
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "discovery server base URL (required)")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}

func newRegisterCommand() *cobra.Command {
	var endpoint, serverURI, discoveryURL string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Perform a single RegisterServer call against a remote LDS",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("info")
			c := discovery.NewClient(log)

			ctx, cancel := context.WithTimeout(context.Background(), clientCallTimeout)
			defer cancel()

			self := discovery.RegisteredServer{
				ServerURI:     serverURI,
				ServerNames:   []discovery.LocalizedText{{Locale: "en", Text: serverURI}},
				ServerType:    discovery.AppTypeServer,
				DiscoveryURLs: []string{discoveryURL},
			}
			if err := c.RegisterOnline(ctx, endpoint, self); err != nil {
				return fmt.Errorf("register: %w", err)
			}
			fmt.Println("registered successfully")
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "LDS base URL (required)")
	cmd.Flags().StringVar(&serverURI, "server-uri", "", "this server's ApplicationURI (required)")
	cmd.Flags().StringVar(&discoveryURL, "discovery-url", "", "this server's discovery endpoint URL (required)")
	_ = cmd.MarkFlagRequired("endpoint")
	_ = cmd.MarkFlagRequired("server-uri")
	_ = cmd.MarkFlagRequired("discovery-url")
	return cmd
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
