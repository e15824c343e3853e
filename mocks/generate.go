package mocks

//go:generate mockgen -destination=./mock_kline_source.go -package=mocks github.com/rxtech-lab/argo-klines/pkg/marketdata/source KlineSource,HorizonSource
//go:generate mockgen -destination=./mock_time_series_store.go -package=mocks github.com/rxtech-lab/argo-klines/pkg/marketdata/store TimeSeriesStore
