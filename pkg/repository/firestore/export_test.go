package firestore

var StoreErr = storeErr
