package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/config"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/executor"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/pubsub"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/application/wallet"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/core/ports"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/erc20"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/ledger"
	webhookpubsub "github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/pubsub"
	dbbadger "github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/storage/db/badger"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/infrastructure/storage/db/inmemory"
	"github.com/ALTV2/MULTI-CHAIN-DEX/internal/interfaces"
	httpinterface "github.com/ALTV2/MULTI-CHAIN-DEX/internal/interfaces/http"
	"github.com/ALTV2/MULTI-CHAIN-DEX/pkg/stats"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	datadir := config.GetDatadir()
	owner := config.GetOwner()

	repoManager, err := newRepoManager(datadir)
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}
	defer repoManager.Close()

	l := ledger.NewLedger(repoManager)
	registry, err := newTokenRegistry(repoManager, config.GetTokens())
	if err != nil {
		log.WithError(err).Fatal("failed to deploy tokens")
	}
	exec := executor.NewExecutor(repoManager, l)

	exchange, err := application.Deploy(ctx, exec, repoManager, l, registry, owner)
	if err != nil {
		log.WithError(err).Fatal("failed to deploy exchange")
	}

	walletSvc, err := wallet.NewService(exec, l, registry, owner)
	if err != nil {
		log.WithError(err).Fatal("failed to init wallet service")
	}
	if err := fundOwner(ctx, l, walletSvc, owner); err != nil {
		log.WithError(err).Fatal("failed to fund owner account")
	}

	pubsubSvc, err := newPubSubService()
	if err != nil {
		log.WithError(err).Fatal("failed to init pubsub service")
	}
	defer pubsubSvc.Close()
	exec.AddPublisher(pubsubSvc)

	if brokers := config.GetList(config.KafkaBrokersKey); len(brokers) > 0 {
		kafkaSink, err := webhookpubsub.NewKafkaPublisher(
			brokers, config.GetString(config.KafkaTopicKey),
		)
		if err != nil {
			log.WithError(err).Fatal("failed to init kafka publisher")
		}
		defer kafkaSink.Close()
		pubsubSvc.AddSink(kafkaSink)
		log.Infof("publishing events to kafka brokers %v", brokers)
	}

	eventCounter, err := stats.NewEventCounter(prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Fatal("failed to register event metrics")
	}
	pubsubSvc.AddSink(eventCounter)

	if config.GetBool(config.EnableProfilerKey) {
		stats.EnableMemoryStatistics(ctx, config.GetDuration(config.StatsIntervalKey))
	}

	var httpSvc interfaces.Service
	httpSvc, err = httpinterface.NewService(httpinterface.ServiceOpts{
		Address:        fmt.Sprintf(":%d", config.GetInt(config.ListeningPortKey)),
		AllowedOrigins: config.GetList(config.AllowedOriginsKey),
		Exchange:       exchange,
		WalletSvc:      walletSvc,
		PubSubSvc:      pubsubSvc,
		Registerer:     prometheus.DefaultRegisterer,
		Gatherer:       prometheus.DefaultGatherer,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init http interface")
	}
	if err := httpSvc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start http interface")
	}
	defer httpSvc.Stop()

	log.Infof("token manager deployed at %s", exchange.TokenManager.Address().Hex())
	log.Infof("order book deployed at %s", exchange.OrderBook.Address().Hex())
	log.Infof("trade contract deployed at %s", exchange.Trade.Address().Hex())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down daemon")
}

func newRepoManager(datadir string) (ports.RepoManager, error) {
	if config.GetString(config.DBTypeKey) == config.DBInMemory {
		return inmemory.NewRepoManager(), nil
	}
	return dbbadger.NewRepoManager(
		filepath.Join(datadir, config.DbLocation), log.StandardLogger(),
	)
}

// newTokenRegistry instantiates the configured tokens at the addresses the
// owner would deploy them to, right after the exchange contracts.
func newTokenRegistry(
	repoManager ports.RepoManager, tokens []config.Token,
) (*erc20.Registry, error) {
	owner := config.GetOwner()
	registry := erc20.NewRegistry()
	for i, t := range tokens {
		address := application.ContractAddress(
			owner, application.FirstTokenNonce+uint64(i),
		)
		token, err := erc20.NewToken(
			repoManager, address, t.Name, t.Symbol, erc20.DefaultDecimals, owner,
		)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", t.Symbol, err)
		}
		registry.Register(token)
		log.Infof("token %s deployed at %s", t.Symbol, address.Hex())
	}
	return registry, nil
}

// fundOwner credits the owner with the configured faucet amount, only the
// first time the daemon starts on a datadir.
func fundOwner(
	ctx context.Context, l ports.Ledger, walletSvc *wallet.Service,
	owner common.Address,
) error {
	balance, err := l.BalanceOf(ctx, owner)
	if err != nil {
		return err
	}
	if balance.Sign() > 0 {
		return nil
	}

	amount, ok := new(big.Int).SetString(config.GetString(config.FaucetAmountKey), 10)
	if !ok || amount.Sign() <= 0 {
		log.Warn("invalid faucet amount, owner account left unfunded")
		return nil
	}
	return walletSvc.Faucet(ctx, executor.TxOpts{From: owner}, owner, amount)
}

func newPubSubService() (*pubsub.Service, error) {
	var store webhookpubsub.SubscriptionStore
	var err error
	if config.GetString(config.DBTypeKey) == config.DBInMemory {
		store = webhookpubsub.NewInMemoryStore()
	} else {
		store, err = webhookpubsub.NewBadgerStore(
			filepath.Join(config.GetDatadir(), config.DbLocation), log.StandardLogger(),
		)
		if err != nil {
			return nil, err
		}
	}

	webhooks, err := webhookpubsub.NewService(
		store,
		config.GetDuration(config.WebhookRequestTimeoutKey),
		config.GetInt(config.WebhookRateLimitKey),
	)
	if err != nil {
		return nil, err
	}
	return pubsub.NewService(webhooks)
}
