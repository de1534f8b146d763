package trading

import (
	"os"

	log "github.com/sirupsen/logrus"

	"tradecontrol/internal/chains"
	"tradecontrol/internal/dex"
	"tradecontrol/pkg/evm"
	solanaclient "tradecontrol/pkg/solana"
	"tradecontrol/pkg/utils"
)

// NewServiceFromEnv builds the trading service from the per-network
// RPC_URL_* and PRIVATE_KEY_* environment variables. A network missing
// either is left unregistered and fails with NetworkUnavailable. The
// returned teardown closes every RPC client.
func NewServiceFromEnv(oracle Oracle) (*Service, func()) {
	service := NewService(oracle)
	var closers []func()

	for _, network := range chains.All {
		rpcURL := os.Getenv("RPC_URL_" + network.EnvSuffix())
		privateKey := os.Getenv("PRIVATE_KEY_" + network.EnvSuffix())
		if rpcURL == "" || privateKey == "" {
			log.Warnf("network %s disabled: missing RPC endpoint or signing key", network)
			continue
		}

		switch network {
		case chains.NetworkSOL:
			client, err := solanaclient.NewClient(rpcURL, privateKey)
			if err != nil {
				log.Errorf("network %s disabled: %v", network, err)
				continue
			}
			service.RegisterNetwork(network, &Backend{
				Default: dex.NewJupiter(client, utils.NewJupiterClient()),
			})

		case chains.NetworkBNB:
			client, err := evm.NewClient(rpcURL, privateKey, network.EVM().ChainID)
			if err != nil {
				log.Errorf("network %s disabled: %v", network, err)
				continue
			}
			closers = append(closers, client.Close)
			service.RegisterNetwork(network, &Backend{
				GasPricer: client,
				Default:   dex.NewPancakeV2(client),
			})

		default: // ETH, BASE
			client, err := evm.NewClient(rpcURL, privateKey, network.EVM().ChainID)
			if err != nil {
				log.Errorf("network %s disabled: %v", network, err)
				continue
			}
			closers = append(closers, client.Close)
			service.RegisterNetwork(network, &Backend{
				GasPricer: client,
				V2:        dex.NewUniswapV2(client, network),
				V3:        dex.NewUniswapV3(client, network),
			})
		}

		log.Infof("network %s enabled", network)
	}

	return service, func() {
		for _, closeClient := range closers {
			closeClient()
		}
	}
}
