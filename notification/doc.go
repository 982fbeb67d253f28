// Package notification delivers loan notifications to interested systems.
//
// Two delivery channels exist: a broker queue (RabbitMQ) that carries
// loan-opened notifications, and an event stream (Kafka) that carries
// loan-closed notifications. Dispatcher encodes notifications as JSON and
// hands them to a Publisher per channel; the concrete publishers live in
// this package as well.
package notification
