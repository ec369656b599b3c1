// Package mqtt connects the rules engine to an MQTT broker.
//
// Entities are physical or virtual devices bridged onto MQTT. The engine
// publishes commands to each entity's topic and reads its state from the
// paired state topic; internal/bus builds those flows on this client.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	t := client.Topics()
//	err = client.Subscribe(t.EntityState("fan"), 1, func(topic string, payload []byte) error {
//	    return nil
//	})
//
// The client keeps a retained status on {prefix}/rules/status, set to
// offline by the broker's will if the process dies. Subscriptions survive
// reconnects.
package mqtt
