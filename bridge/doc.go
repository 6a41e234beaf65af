// Package bridge connects appliances reporting raw property values over MQTT to typed channel states published back
// to MQTT.
//
// For an appliance with ID "dw" below the prefix "miele", raw values arrive on miele/dw/raw/<source key> and decoded
// states are published to miele/dw/<channel ID>. A raw payload is either the bare value or a json Report carrying the
// appliance's localization MetaData.
package bridge
