package issuance

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	recordVersion = 1

	settingsSize = 34 // version(1) + stage(1) + price(8) + perTx(8) + perHolder(8) + maxSupply(8)

	deploymentHeaderSize = 21 // version(1) + admin(20)
)

// encodeSettings serializes s to its fixed-width binary form.
func encodeSettings(s Settings) []byte {
	buf := make([]byte, settingsSize)
	buf[0] = recordVersion
	buf[1] = byte(s.Stage)
	binary.BigEndian.PutUint64(buf[2:10], s.UnitPrice)
	binary.BigEndian.PutUint64(buf[10:18], s.MaxMintAmountPerTx)
	binary.BigEndian.PutUint64(buf[18:26], s.MaxMintAmount)
	binary.BigEndian.PutUint64(buf[26:34], s.MaxSupply)
	return buf
}

// decodeSettings parses a record produced by encodeSettings.
func decodeSettings(data []byte) (Settings, error) {
	if len(data) != settingsSize {
		return Settings{}, fmt.Errorf("%w: settings: expected %d bytes, got %d", ErrInvalidRecord, settingsSize, len(data))
	}
	if data[0] != recordVersion {
		return Settings{}, fmt.Errorf("%w: settings: unknown version %d", ErrInvalidRecord, data[0])
	}
	s := Settings{
		Stage:              Stage(data[1]),
		UnitPrice:          binary.BigEndian.Uint64(data[2:10]),
		MaxMintAmountPerTx: binary.BigEndian.Uint64(data[10:18]),
		MaxMintAmount:      binary.BigEndian.Uint64(data[18:26]),
		MaxSupply:          binary.BigEndian.Uint64(data[26:34]),
	}
	if !s.Stage.Valid() {
		return Settings{}, fmt.Errorf("%w: settings: %w %d", ErrInvalidRecord, ErrInvalidStage, data[1])
	}
	return s, nil
}

// encodeDeployment serializes d as
// version(1) + admin(20) + len(4) + revealed + len(4) + hidden.
func encodeDeployment(d Deployment) ([]byte, error) {
	r, h := d.Locators.Revealed, d.Locators.Hidden
	if uint64(len(r)) > math.MaxUint32 || uint64(len(h)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: locator too long", ErrInvalidRecord)
	}
	buf := make([]byte, 0, deploymentHeaderSize+8+len(r)+len(h))
	buf = append(buf, recordVersion)
	buf = append(buf, d.Admin[:]...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(r)))
	buf = append(buf, r...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(h)))
	buf = append(buf, h...)
	return buf, nil
}

// decodeDeployment parses a record produced by encodeDeployment.
func decodeDeployment(data []byte) (Deployment, error) {
	var d Deployment
	if len(data) < deploymentHeaderSize+8 {
		return d, fmt.Errorf("%w: deployment: too short (%d bytes)", ErrInvalidRecord, len(data))
	}
	if data[0] != recordVersion {
		return d, fmt.Errorf("%w: deployment: unknown version %d", ErrInvalidRecord, data[0])
	}
	copy(d.Admin[:], data[1:deploymentHeaderSize])
	offset := deploymentHeaderSize

	readString := func(field string) (string, error) {
		if len(data)-offset < 4 {
			return "", fmt.Errorf("%w: deployment: truncated %s length", ErrInvalidRecord, field)
		}
		n := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		offset += 4
		if n < 0 || len(data)-offset < n {
			return "", fmt.Errorf("%w: deployment: truncated %s", ErrInvalidRecord, field)
		}
		s := string(data[offset : offset+n])
		offset += n
		return s, nil
	}

	var err error
	if d.Locators.Revealed, err = readString("revealed locator"); err != nil {
		return Deployment{}, err
	}
	if d.Locators.Hidden, err = readString("hidden locator"); err != nil {
		return Deployment{}, err
	}
	if offset != len(data) {
		return Deployment{}, fmt.Errorf("%w: deployment: %d trailing bytes", ErrInvalidRecord, len(data)-offset)
	}
	return d, nil
}

func encodeAmount(n uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, n)
}

func decodeAmount(data []byte) (uint64, error) {
	if data == nil {
		return 0, nil
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: amount: expected 8 bytes, got %d", ErrInvalidRecord, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

