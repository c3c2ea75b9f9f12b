// Package mq публикует события журнала вызовов в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с автоматическим reconnect
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация invocation.completed
//   - consumer.go   — потребление (conduit invocations tail)
//
// Exchanges:
//   - conduit.invocations — события вызовов action
//   - conduit.dlq         — dead letter queue
package mq
