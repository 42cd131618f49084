package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcHandler func(params []interface{}) (interface{}, *rpcError)

// rpcTestServer answers each RPC method with the matching handler.
func rpcTestServer(t *testing.T, handlers map[string]rpcHandler) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler, ok := handlers[req.Method]
		if !ok {
			t.Errorf("unexpected RPC method: %s", req.Method)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		result, rpcErr := handler(req.Params)
		resp := rpcResponse{ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			resp.Result, _ = json.Marshal(result)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

const treasuryAddr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

func TestListUnspent(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"listunspent": func(params []interface{}) (interface{}, *rpcError) {
			require.Len(t, params, 3)
			assert.Equal(t, float64(0), params[0])
			assert.Equal(t, float64(9999999), params[1])
			addrs, ok := params[2].([]interface{})
			require.True(t, ok)
			assert.Equal(t, treasuryAddr, addrs[0])

			return []map[string]interface{}{
				{"txid": "aa11", "vout": 0, "amount": 0.001, "scriptPubKey": "76a914", "address": treasuryAddr, "confirmations": 6},
				{"txid": "bb22", "vout": 3, "amount": 2.5, "scriptPubKey": "76a914", "address": treasuryAddr, "confirmations": 0},
			}, nil
		},
	})
	defer server.Close()

	utxos, err := NewRPCClient(RPCConfig{URL: server.URL}).ListUnspent(context.Background(), treasuryAddr)
	require.NoError(t, err)
	require.Len(t, utxos, 2)
	assert.Equal(t, uint64(100_000), utxos[0].Amount)
	assert.Equal(t, int64(6), utxos[0].Confirmations)
	assert.Equal(t, "bb22", utxos[1].TxID)
	assert.Equal(t, uint32(3), utxos[1].Vout)
	assert.Equal(t, uint64(250_000_000), utxos[1].Amount)
}

func TestBroadcastTx(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"sendrawtransaction": func(params []interface{}) (interface{}, *rpcError) {
			require.Len(t, params, 1)
			assert.Equal(t, "0100000001abcdef", params[0])
			return "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", nil
		},
	})
	defer server.Close()

	txid, err := NewRPCClient(RPCConfig{URL: server.URL}).BroadcastTx(context.Background(), "0100000001abcdef")
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", txid)
}

func TestBroadcastTxRejected(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"sendrawtransaction": func(_ []interface{}) (interface{}, *rpcError) {
			return nil, &rpcError{Code: -26, Message: "mandatory-script-verify-flag-failed"}
		},
	})
	defer server.Close()

	txid, err := NewRPCClient(RPCConfig{URL: server.URL}).BroadcastTx(context.Background(), "00")
	assert.Empty(t, txid)
	assert.ErrorIs(t, err, ErrBroadcastRejected)
	assert.Contains(t, err.Error(), "mandatory-script-verify-flag-failed")
}

func TestGetTxStatus(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"getrawtransaction": func(params []interface{}) (interface{}, *rpcError) {
			require.Len(t, params, 2)
			assert.Equal(t, true, params[1])
			if params[0] == "missing" {
				return nil, &rpcError{Code: -5, Message: "No such mempool or blockchain transaction"}
			}
			return map[string]interface{}{"confirmations": 3, "blockhash": "00ff", "blockheight": 800000}, nil
		},
	})
	defer server.Close()
	client := NewRPCClient(RPCConfig{URL: server.URL})

	st, err := client.GetTxStatus(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.True(t, st.Confirmed)
	assert.Equal(t, int64(3), st.Confirmations)
	assert.Equal(t, "00ff", st.BlockHash)
	assert.Equal(t, uint64(800000), st.BlockHeight)

	_, err = client.GetTxStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTxNotFound)
}

func TestImportAddress(t *testing.T) {
	called := false
	server := rpcTestServer(t, map[string]rpcHandler{
		"importaddress": func(params []interface{}) (interface{}, *rpcError) {
			called = true
			assert.Equal(t, []interface{}{treasuryAddr, "", true}, params)
			return nil, nil
		},
	})
	defer server.Close()

	require.NoError(t, NewRPCClient(RPCConfig{URL: server.URL}).ImportAddress(context.Background(), treasuryAddr))
	assert.True(t, called)
}

func TestGetBlockHeader(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"getblockheader": func(params []interface{}) (interface{}, *rpcError) {
			assert.Equal(t, []interface{}{"00ff", false}, params)
			return "0100000000", nil
		},
	})
	defer server.Close()
	client := NewRPCClient(RPCConfig{URL: server.URL})

	raw, err := client.GetBlockHeader(context.Background(), "00ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 0}, raw)
}

func TestGetBlockHeader_BadHex(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"getblockheader": func([]interface{}) (interface{}, *rpcError) { return "zz", nil },
	})
	defer server.Close()

	_, err := NewRPCClient(RPCConfig{URL: server.URL}).GetBlockHeader(context.Background(), "00ff")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestGetMerkleProof(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"getmerkleproof2": func(params []interface{}) (interface{}, *rpcError) {
			require.Len(t, params, 2)
			assert.Equal(t, "00ff", params[0])
			switch params[1] {
			case "missing":
				return nil, &rpcError{Code: -5, Message: "Transaction not found"}
			case "empty":
				return map[string]interface{}{}, nil
			}
			return map[string]interface{}{
				"index":  5,
				"txOrId": params[1],
				"target": "00ff",
				"nodes":  []string{"*", "abcd"},
			}, nil
		},
	})
	defer server.Close()
	client := NewRPCClient(RPCConfig{URL: server.URL})

	proof, err := client.GetMerkleProof(context.Background(), "beef", "00ff")
	require.NoError(t, err)
	assert.Equal(t, &MerkleProof{Index: 5, TxID: "beef", BlockHash: "00ff", Nodes: []string{"*", "abcd"}}, proof)

	_, err = client.GetMerkleProof(context.Background(), "missing", "00ff")
	assert.ErrorIs(t, err, ErrTxNotFound)

	_, err = client.GetMerkleProof(context.Background(), "empty", "00ff")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestBtcToSat(t *testing.T) {
	assert.Equal(t, uint64(1), btcToSat(0.00000001))
	assert.Equal(t, uint64(10_000_000), btcToSat(0.1))
	assert.Equal(t, uint64(2_100_000_000_000_000), btcToSat(21_000_000))
}

func TestMockBlockchainService_Defaults(t *testing.T) {
	m := &MockBlockchainService{}
	utxos, err := m.ListUnspent(context.Background(), treasuryAddr)
	assert.NoError(t, err)
	assert.Empty(t, utxos)
	assert.NoError(t, m.ImportAddress(context.Background(), treasuryAddr))
}
