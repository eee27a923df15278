// Comando gbn-recv recebe um arquivo de um sender Go-Back-N por UDP.
//
// Uso: gbn-recv <port> <file-path> <loss-probability>
package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gbnftp/internal/config"
	"gbnftp/internal/logger"
	"gbnftp/internal/metrics"
	"gbnftp/internal/receiver"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Uso: gbn-recv <port> <file-path> <loss-probability>")
}

func main() {
	if len(os.Args) != 4 {
		usage()
		os.Exit(1)
	}

	filePath := os.Args[2]

	port, err := config.ParsePort(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lossProb, err := strconv.ParseFloat(os.Args[3], 64)
	if err != nil || config.ValidateLossProbability(lossProb) != nil {
		fmt.Fprintln(os.Stderr, "loss-probability inválida")
		os.Exit(1)
	}

	udpAddr := &net.UDPAddr{Port: port}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "falha ao abrir socket: %v\n", err)
		os.Exit(1)
	}
	_ = conn.SetReadBuffer(config.DefaultReadBuffer)
	_ = conn.SetWriteBuffer(config.DefaultWriteBuffer)

	sinkFile, err := os.Create(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "falha ao criar arquivo de destino: %v\n", err)
		conn.Close()
		os.Exit(1)
	}
	sink := bufio.NewWriter(sinkFile)

	log := logger.NewDefault("receiver")
	m := &metrics.ReceiverMetrics{}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	fmt.Fprintf(os.Stderr, "Ouvindo na porta %d, gravando em %s, perda simulada=%.3f\n", port, filePath, lossProb)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := receiver.Config{
		LossProbability: lossProb,
		Timeout:         config.RetransmitTimeout,
		IdleShutdown:    config.IdleShutdown,
	}

	runErr := receiver.Run(ctx, conn, sink, cfg, log, m, rng)

	sink.Flush()
	sinkFile.Close()
	conn.Close()

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "\nInterrompido.")
		os.Exit(128 + int(syscall.SIGINT))
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "receiver encerrou com erro: %v\n", runErr)
		os.Exit(1)
	}
	os.Exit(0)
}
